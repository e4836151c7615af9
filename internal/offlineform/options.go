package offlineform

import (
	"offlineform/internal/capture"
	"offlineform/internal/queue"
	"offlineform/internal/replay"
	"offlineform/internal/transport"
)

const (
	// DefaultKey is the storage key holding the queue.
	DefaultKey = "offlineForm"
	// DefaultClassName marks forms that already have a capture handler.
	DefaultClassName = "offlineForm"
)

// Options configures capture and replay for a set of forms. Hooks run
// without any client lock held and may call Init, Submit, Release or
// Pending. A sync hook must not call Sync, which waits for the running pass.
type Options struct {
	Key        string
	ClassName  string
	DirectSend bool

	BeforeSync         func(count int)
	AfterSync          func(total int)
	OnSync             func(index, total int, resp *transport.Response)
	BeforeStorage      func(count int, data []queue.Entry)
	OnStorage          func(count int, data []queue.Entry)
	OnError            func(err error)
	BeforeOnlineSend   func()
	OnlineSendCallback func(resp *transport.Response)
}

// DefaultOptions returns the options used when a caller supplies none.
func DefaultOptions() Options {
	return Options{
		Key:       DefaultKey,
		ClassName: DefaultClassName,
	}
}

// Merge overlays the non-zero fields of override on o.
func (o Options) Merge(override Options) Options {
	merged := o
	if override.Key != "" {
		merged.Key = override.Key
	}
	if override.ClassName != "" {
		merged.ClassName = override.ClassName
	}
	if override.DirectSend {
		merged.DirectSend = true
	}
	if override.BeforeSync != nil {
		merged.BeforeSync = override.BeforeSync
	}
	if override.AfterSync != nil {
		merged.AfterSync = override.AfterSync
	}
	if override.OnSync != nil {
		merged.OnSync = override.OnSync
	}
	if override.BeforeStorage != nil {
		merged.BeforeStorage = override.BeforeStorage
	}
	if override.OnStorage != nil {
		merged.OnStorage = override.OnStorage
	}
	if override.OnError != nil {
		merged.OnError = override.OnError
	}
	if override.BeforeOnlineSend != nil {
		merged.BeforeOnlineSend = override.BeforeOnlineSend
	}
	if override.OnlineSendCallback != nil {
		merged.OnlineSendCallback = override.OnlineSendCallback
	}
	return merged
}

func (o Options) captureConfig() capture.Config {
	return capture.Config{
		DirectSend: o.DirectSend,
		Hooks: capture.Hooks{
			BeforeStorage:    o.BeforeStorage,
			OnStorage:        o.OnStorage,
			BeforeOnlineSend: o.BeforeOnlineSend,
			OnlineResult:     o.OnlineSendCallback,
			OnError:          o.OnError,
		},
	}
}

func (o Options) replayHooks() replay.Hooks {
	return replay.Hooks{
		BeforeSync: o.BeforeSync,
		AfterSync:  o.AfterSync,
		OnSync:     o.OnSync,
		OnError:    o.OnError,
	}
}
