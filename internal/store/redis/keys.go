package redis

const (
	// KeyPrefixHost is the prefix for the latest result of a hostname
	KeyPrefixHost = "enumlive:host:"
	// KeyPrefixScan is the prefix for per-scan keys
	KeyPrefixScan = "enumlive:scan:"
)

// HostKey returns the Redis key holding the latest result for hostname
func HostKey(hostname string) string {
	return KeyPrefixHost + hostname
}

// ScanOrderKey returns the list of hostnames of a scan, in completion order
func ScanOrderKey(scanID string) string {
	return KeyPrefixScan + scanID + ":order"
}

// ScanMetaKey returns the hash describing a scan
func ScanMetaKey(scanID string) string {
	return KeyPrefixScan + scanID + ":meta"
}
