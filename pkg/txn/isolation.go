package txn

import "github.com/nikmy/txprop/pkg/errors"

func IsolationFromString(s string) (IsolationLevel, error) {
	switch s {
	case "", "default":
		return LevelDefault, nil
	case "read_uncommitted":
		return ReadUncommitted, nil
	case "read_committed":
		return ReadCommitted, nil
	case "snapshot":
		return SnapshotIsolation, nil
	case "serializable":
		return Serializable, nil
	default:
		return LevelDefault, errors.Errorf("unknown isolation level %q", s)
	}
}

func (l IsolationLevel) String() string {
	switch l {
	case ReadUncommitted:
		return "read_uncommitted"
	case ReadCommitted:
		return "read_committed"
	case SnapshotIsolation:
		return "snapshot"
	case Serializable:
		return "serializable"
	default:
		return "default"
	}
}

func (l *IsolationLevel) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string

	err := unmarshal(&raw)
	if err != nil {
		return err
	}

	*l, err = IsolationFromString(raw)
	return err
}
