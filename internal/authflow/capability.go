package authflow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PizzaHomicide/webauth/internal/log"
)

// CapabilitySet reports which presentation mechanisms the running environment offers.
type CapabilitySet struct {
	HasIntegratedSystemSession bool
	HasInAppBrowserComponent   bool
}

// Version is a major.minor system version.  Patch levels and suffixes are ignored when gating capabilities.
type Version struct {
	Major int
	Minor int
}

var (
	// DefaultIntegratedSessionMinVersion is the first system version shipping an integrated session with ephemeral
	// support.
	DefaultIntegratedSessionMinVersion = Version{Major: 13}
	// DefaultInAppBrowserMinVersion is the first system version shipping the in-app browser component.
	DefaultInAppBrowserMinVersion = Version{Major: 9}
)

// ParseVersion parses strings such as "13", "13.4" or "6.18.44-fc".  Anything after the minor component is ignored.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "v"))
	if s == "" {
		return Version{}, fmt.Errorf("empty version")
	}
	parts := strings.SplitN(s, ".", 3)

	major, err := strconv.Atoi(leadingDigits(parts[0]))
	if err != nil {
		return Version{}, fmt.Errorf("invalid major version in %q: %w", s, err)
	}
	v := Version{Major: major}
	if len(parts) > 1 {
		if digits := leadingDigits(parts[1]); digits != "" {
			v.Minor, _ = strconv.Atoi(digits)
		}
	}
	return v, nil
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// AtLeast reports whether v is the same as or newer than min.
func (v Version) AtLeast(min Version) bool {
	if v.Major != min.Major {
		return v.Major > min.Major
	}
	return v.Minor >= min.Minor
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Environment is the host runtime the Prober inspects.
type Environment interface {
	// SystemVersion returns the running system version
	SystemVersion() Version
	// HasComponent reports whether an optional system component can be resolved by name
	HasComponent(name string) bool
}

// ProberConfig holds the gates applied to the environment.
type ProberConfig struct {
	IntegratedSessionMinVersion Version
	// IntegratedSessionComponent is optional.  When set it must also resolve for the integrated session to be reported.
	IntegratedSessionComponent string
	InAppBrowserMinVersion     Version
	InAppBrowserComponent      string
}

// DefaultProberConfig returns the version gates with the given in-app browser component name.
func DefaultProberConfig(inAppBrowserComponent string) ProberConfig {
	return ProberConfig{
		IntegratedSessionMinVersion: DefaultIntegratedSessionMinVersion,
		InAppBrowserMinVersion:      DefaultInAppBrowserMinVersion,
		InAppBrowserComponent:       inAppBrowserComponent,
	}
}

// Prober turns an Environment into a CapabilitySet.
type Prober struct {
	env Environment
	cfg ProberConfig
}

func NewProber(env Environment, cfg ProberConfig) *Prober {
	return &Prober{env: env, cfg: cfg}
}

// Probe inspects the environment.  It has no side effects and never fails: a missing capability is reported as false.
func (p *Prober) Probe() CapabilitySet {
	version := p.env.SystemVersion()

	integrated := version.AtLeast(p.cfg.IntegratedSessionMinVersion)
	if integrated && p.cfg.IntegratedSessionComponent != "" {
		integrated = p.env.HasComponent(p.cfg.IntegratedSessionComponent)
	}

	// Both checks are required: the component may be resolvable on a system too old to present it.
	inApp := p.cfg.InAppBrowserComponent != "" &&
		p.env.HasComponent(p.cfg.InAppBrowserComponent) &&
		version.AtLeast(p.cfg.InAppBrowserMinVersion)

	caps := CapabilitySet{
		HasIntegratedSystemSession: integrated,
		HasInAppBrowserComponent:   inApp,
	}
	log.Debug("Probed capabilities", "system_version", version.String(),
		"integrated_session", caps.HasIntegratedSystemSession, "in_app_browser", caps.HasInAppBrowserComponent)
	return caps
}
