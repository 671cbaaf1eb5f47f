package gsdk

import (
	"context"

	"github.com/vinayprograms/gsdk/heartbeat"
	"github.com/vinayprograms/gsdk/hostinfo"
)

// Version is the SDK version reported to the agent.
const Version = "1.0.0"

// Flavor identifies this SDK implementation to the agent.
const Flavor = "Go"

// Info is the body of the one-time gsdkinfo report.
type Info struct {
	Flavor  string         `json:"flavor"`
	Version string         `json:"version"`
	Host    *hostinfo.Host `json:"host,omitempty"`
}

func (s *SDK) sendInfo(ctx context.Context) {
	sender, ok := s.transport.(heartbeat.InfoSender)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, infoTimeout)
	defer cancel()

	info := Info{Flavor: Flavor, Version: Version}
	host, err := hostinfo.Collect(ctx)
	if err != nil {
		s.logger.Debug("host_info_partial", map[string]interface{}{"error": err.Error()})
	}
	info.Host = host

	if err := sender.SendInfo(ctx, info); err != nil {
		s.logger.Warn("gsdkinfo_failed", map[string]interface{}{"error": err.Error()})
	}
}
