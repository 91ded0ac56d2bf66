// Package adn flags device and network anomalies: unseen devices, a change of
// platform family and missing device identifiers.
package adn

import (
	"context"

	"guardian/internal/device"
	"guardian/internal/guardian"
	"guardian/internal/shield"
)

const (
	ReasonMissingDeviceID = "missing_device_id"
	ReasonUnknownDevice   = "unknown_device"
	ReasonPlatformChanged = "platform_changed"
	ReasonBotUserAgent    = "bot_user_agent"
)

const (
	missingDeviceScore   = 0.2
	unknownDeviceScore   = 0.5
	platformChangedScore = 0.4
	botScore             = 0.8
)

type Provider struct{}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Layer() guardian.Layer { return guardian.LayerADN }

func (p *Provider) Assess(_ context.Context, in shield.AssessInput) (*guardian.Signal, error) {
	f := shield.NewFindings(guardian.LayerADN)
	tc, prof := in.Context, in.Profile

	if tc.DeviceID == "" {
		f.Add(missingDeviceScore, ReasonMissingDeviceID)
	}

	platform := device.PlatformFamily(tc.UserAgent)
	if platform == device.PlatformBot {
		f.Add(botScore, ReasonBotUserAgent)
	}

	// A wallet without device history has nothing to compare against.
	if prof != nil && len(prof.KnownDevices) > 0 && !prof.KnowsDevice(in.DeviceKey) {
		f.Add(unknownDeviceScore, ReasonUnknownDevice)
	}
	if prof != nil && prof.LastPlatform != "" && platform != "" && platform != prof.LastPlatform {
		f.Add(platformChangedScore, ReasonPlatformChanged)
	}
	return f.Signal(), nil
}
