package reconcile

import "time"

// ChangeDetector decides whether a local file differs from its remote counterpart
type ChangeDetector interface {
	HasChanged(local *LocalFile, remote *RemoteFile) bool
}

type ChangeDetectorFunc func(local *LocalFile, remote *RemoteFile) bool

func (f ChangeDetectorFunc) HasChanged(local *LocalFile, remote *RemoteFile) bool {
	return f(local, remote)
}

// MetadataDetector reports a change when the sizes differ or the local file was
// modified after the remote one. Timestamps are compared at millisecond
// precision since that is all the wire format carries.
type MetadataDetector struct{}

func (MetadataDetector) HasChanged(local *LocalFile, remote *RemoteFile) bool {
	if local.Size != remote.Size {
		return true
	}
	return truncMillis(local.ModTime).After(truncMillis(remote.EffectiveModTime()))
}

// HashDetector compares content hashes and falls back to metadata when either side lacks one
type HashDetector struct{}

func (HashDetector) HasChanged(local *LocalFile, remote *RemoteFile) bool {
	if local.Size != remote.Size {
		return true
	}
	if local.Hash == "" || remote.Hash == "" {
		return MetadataDetector{}.HasChanged(local, remote)
	}
	return local.Hash != remote.Hash
}

// DetectorFor returns the detector for a compare strategy name
func DetectorFor(compare string) ChangeDetector {
	if compare == CompareHash {
		return HashDetector{}
	}
	return MetadataDetector{}
}

func truncMillis(t time.Time) time.Time {
	return t.Truncate(time.Millisecond)
}
