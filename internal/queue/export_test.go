package queue

func Decode(raw string) ([]Entry, error) {
	entries, _, err := decode(raw)
	return entries, err
}

var Encode = encode
