package bridge

// ChangeType is the kind of a change notification.
type ChangeType int

const (
	Changed ChangeType = iota + 1
	Created
	Deleted
)

func (t ChangeType) String() string {
	switch t {
	case Changed:
		return "changed"
	case Created:
		return "created"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// FileChange reports one affected resource.
type FileChange struct {
	Type ChangeType `json:"type"`
	URI  URI        `json:"uri"`
}

// WriteOptions control WriteFile.
type WriteOptions struct {
	Create    bool `mapstructure:"create"`
	Overwrite bool `mapstructure:"overwrite"`
}

// DeleteOptions control Delete.
type DeleteOptions struct {
	Recursive bool `mapstructure:"recursive"`
}

// RenameOptions control Rename.
type RenameOptions struct {
	Overwrite bool `mapstructure:"overwrite"`
}

// CopyOptions control Copy.
type CopyOptions struct {
	Overwrite bool `mapstructure:"overwrite"`
}

// WatchOptions are accepted by Watch and ignored.
type WatchOptions struct {
	Recursive bool     `mapstructure:"recursive"`
	Excludes  []string `mapstructure:"excludes"`
}
