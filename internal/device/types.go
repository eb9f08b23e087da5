package device

// Kind is the classification of a block device
type Kind int

const (
	KindUnknown Kind = iota
	KindDisk
	KindPartition
	KindCryptContainer
	KindOptical
)

func (k Kind) String() string {
	switch k {
	case KindDisk:
		return "disk"
	case KindPartition:
		return "partition"
	case KindCryptContainer:
		return "crypt"
	case KindOptical:
		return "optical"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// State is the display state of a classified device. Exactly one applies
// per device per scan.
type State int

const (
	// StateSuppressed is used for optical and unknown devices
	StateSuppressed State = iota
	StateLocked
	StateUnlockedMounted
	StateUnlockedUnmounted
	StatePlainMounted
	StatePlainUnmounted
	StateExtendedPartitionMarker
	StatePartitionless
)

func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateUnlockedMounted:
		return "unlocked-mounted"
	case StateUnlockedUnmounted:
		return "unlocked-unmounted"
	case StatePlainMounted:
		return "mounted"
	case StatePlainUnmounted:
		return "unmounted"
	case StateExtendedPartitionMarker:
		return "extended-partition"
	case StatePartitionless:
		return "partitionless"
	default:
		return "suppressed"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Mounted reports whether the state implies a mount point
func (s State) Mounted() bool {
	return s == StateUnlockedMounted || s == StatePlainMounted
}

// Hidden reports whether devices in this state render nothing
func (s State) Hidden() bool {
	return s == StateSuppressed || s == StateExtendedPartitionMarker
}

// StateFor derives the state of a partition or crypt container from its
// lock and mount status. Disks are always partitionless; every other kind
// is suppressed.
func StateFor(kind Kind, locked, mounted bool) State {
	switch kind {
	case KindPartition:
		if locked {
			return StateLocked
		}
		if mounted {
			return StatePlainMounted
		}
		return StatePlainUnmounted
	case KindCryptContainer:
		if mounted {
			return StateUnlockedMounted
		}
		return StateUnlockedUnmounted
	case KindDisk:
		return StatePartitionless
	default:
		return StateSuppressed
	}
}

// Device is one classified leaf block device
type Device struct {
	Path             string `json:"path"`
	KernelName       string `json:"kernel_name,omitempty"`
	ParentKernelName string `json:"parent_kernel_name,omitempty"`
	Kind             Kind   `json:"kind"`
	State            State  `json:"state"`
	FSType           string `json:"fs_type,omitempty"`
	FSUUID           string `json:"fs_uuid,omitempty"`
	Label            string `json:"label,omitempty"`
	MountPoint       string `json:"mount_point,omitempty"`
	ReadOnly         bool   `json:"read_only,omitempty"`
	SpaceAvailable   string `json:"space_available,omitempty"`
}

// Visible reports whether the device renders a fragment
func (d Device) Visible() bool {
	return !d.State.Hidden()
}
