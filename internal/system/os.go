package system

import "github.com/go-ini/ini"

const (
	UbuntuOsName = "ubuntu"
	DebianOsName = "debian"
	RhelOsName   = "rhel"
	FedoraOsName = "fedora"
	AmazonOsName = "amzn"

	osReleasePath = "/etc/os-release"
)

// OsRelease holds the identification fields of os-release(5).
type OsRelease struct {
	ID     string
	IDLike string
}

// ReadOsRelease parses an os-release file.
func ReadOsRelease(path string) (OsRelease, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return OsRelease{}, err
	}
	section := cfg.Section("")
	return OsRelease{
		ID:     section.Key("ID").String(),
		IDLike: section.Key("ID_LIKE").String(),
	}, nil
}

// HostOsRelease reads the os-release file of the running host.
func HostOsRelease() (OsRelease, error) {
	return ReadOsRelease(osReleasePath)
}
