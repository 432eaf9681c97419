package queue

// State is the lifecycle position of an Item. States advance in declaration order,
// except that a failed download returns Downloading to WaitingForDownload.
type State int32

const (
	// WaitingForDownload items are eligible for a download slot once their retry delay has passed.
	WaitingForDownload State = iota
	// Hashing items hold a download slot and are verifying an existing or partial file.
	Hashing
	// Downloading items hold a download slot and are transferring data.
	Downloading
	// WaitingForInstall items have a verified file and wait for an install slot.
	WaitingForInstall
	// Installing items hold an install slot.
	Installing
	// Complete items are done for this run.
	Complete
)

func (s State) String() string {
	switch s {
	case WaitingForDownload:
		return "waiting for download"
	case Hashing:
		return "hashing"
	case Downloading:
		return "downloading"
	case WaitingForInstall:
		return "waiting for install"
	case Installing:
		return "installing"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// HoldsDownloadSlot reports whether items in s count against the download cap.
func (s State) HoldsDownloadSlot() bool {
	return s == Hashing || s == Downloading
}

// HoldsInstallSlot reports whether items in s count against the install cap.
func (s State) HoldsInstallSlot() bool {
	return s == Installing
}
