package config

const (
	defaultDataDir              = "~/.local/share/offlineform"
	defaultAPIBind              = "127.0.0.1:7488"
	defaultQueueKey             = "offlineForm"
	defaultClassName            = "offlineForm"
	defaultSenderTimeout        = 30
	defaultSenderUserAgent      = "offlineform/0.1.0"
	defaultConnectivityMode     = ModeAuto
	defaultProbeURL             = "https://connectivitycheck.gstatic.com/generate_204"
	defaultProbeTimeout         = 5
	defaultPollInterval         = 15
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Connectivity modes accepted by connectivity.mode.
const (
	ModeAuto    = "auto"
	ModeOnline  = "online"
	ModeOffline = "offline"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			APIBind: defaultAPIBind,
		},
		Queue: Queue{
			Key:         defaultQueueKey,
			ClassName:   defaultClassName,
			SyncOnStart: true,
		},
		Sender: Sender{
			DirectSend:     false,
			RequestTimeout: defaultSenderTimeout,
			UserAgent:      defaultSenderUserAgent,
		},
		Connectivity: Connectivity{
			Mode:         defaultConnectivityMode,
			ProbeURL:     defaultProbeURL,
			ProbeTimeout: defaultProbeTimeout,
			PollInterval: defaultPollInterval,
			Netlink:      true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Sync:           true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
