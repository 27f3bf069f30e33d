package firewall

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/canaryports/canaryports/internal/system"
)

// AutoName selects a backend for the running host with Detect.
const AutoName = "auto"

// Names lists every backend name accepted by New.
var Names = []string{AutoName, IptablesName, NftablesName, UfwName, FirewalldName, PfName, NetshName, NoopName}

// Options configures backend construction.
type Options struct {
	// Runner executes firewall tools. Defaults to an ExecRunner.
	Runner Runner
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Runner == nil {
		o.Runner = NewExecRunner()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// New builds the backend called name.
func New(ctx context.Context, name string, opts Options) (Backend, error) {
	opts = opts.withDefaults()
	switch strings.ToLower(name) {
	case "", AutoName:
		return Detect(ctx, opts), nil
	case IptablesName:
		return NewIptables(opts.Runner), nil
	case NftablesName:
		return NewNftables(opts.Runner), nil
	case UfwName:
		return NewUncomplicatedFirewall(opts.Runner), nil
	case FirewalldName:
		return NewFirewalld(opts.Runner), nil
	case PfName:
		return NewPf(opts.Runner), nil
	case NetshName:
		return NewNetsh(opts.Runner), nil
	case NoopName:
		return NewNoop(opts.Logger), nil
	default:
		return nil, fmt.Errorf("unknown firewall backend %q, allowed values: %v", name, Names)
	}
}

// Detect picks the backend matching the host firewall. On linux the distro
// frontend (ufw, firewalld) wins when it is active, since rules written around it
// get flushed on its next reload.
func Detect(ctx context.Context, opts Options) Backend {
	d := detector{
		goos:      runtime.GOOS,
		osRelease: system.HostOsRelease,
		lookPath:  lookPath,
		opts:      opts.withDefaults(),
	}
	return d.detect(ctx)
}

type detector struct {
	goos      string
	osRelease func() (system.OsRelease, error)
	lookPath  func(string) (string, bool)
	opts      Options
}

func (d detector) detect(ctx context.Context) Backend {
	log := d.opts.Logger
	backend := d.pick(ctx)
	log.Info("Selected firewall backend", zap.String("backend", backend.Name()), zap.String("os", d.goos))
	return backend
}

func (d detector) pick(ctx context.Context) Backend {
	log := d.opts.Logger
	switch d.goos {
	case "windows":
		return NewNetsh(d.opts.Runner)
	case "darwin", "freebsd", "openbsd":
		return NewPf(d.opts.Runner)
	case "linux":
	default:
		log.Warn("No firewall support for this platform, blocking is disabled", zap.String("os", d.goos))
		return NewNoop(log)
	}

	release, err := d.osRelease()
	if err != nil {
		log.Warn("Failed to read os-release", zap.Error(err))
	}
	ids := strings.Fields(release.ID + " " + release.IDLike)

	if containsAny(ids, system.UbuntuOsName, system.DebianOsName) {
		ufw := &UncomplicatedFireWall{binPath: d.resolve(ufwBinary), runner: d.opts.Runner}
		if enabled, err := ufw.IsEnabled(ctx); err != nil {
			log.Warn("Failed to get ufw status", zap.Error(err))
		} else if enabled {
			return ufw
		}
	}
	if containsAny(ids, system.RhelOsName, system.FedoraOsName, system.AmazonOsName) {
		fd := &firewalld{binPath: d.resolve(firewalldBinary), runner: d.opts.Runner}
		if enabled, err := fd.IsEnabled(ctx); err != nil {
			log.Warn("Failed to get firewalld status", zap.Error(err))
		} else if enabled {
			return fd
		}
	}
	if _, ok := d.lookPath(nftBinary); ok {
		return NewNftables(d.opts.Runner)
	}
	if _, ok := d.lookPath(iptablesBinary); ok {
		return NewIptables(d.opts.Runner)
	}
	log.Warn("No firewall tool found, blocking is disabled")
	return NewNoop(log)
}

func (d detector) resolve(bin string) string {
	if path, ok := d.lookPath(bin); ok {
		return path
	}
	return bin
}

func containsAny(ids []string, names ...string) bool {
	for _, id := range ids {
		for _, name := range names {
			if id == name {
				return true
			}
		}
	}
	return false
}
