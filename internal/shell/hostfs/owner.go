package hostfs

import (
	"os"
	"os/user"
	"strconv"
)

// =============================================================================
// Ownership Resolution
// =============================================================================

// resolveIDs maps owner/group names to numeric ids. Empty names resolve to
// -1, which os.Chown treats as "leave unchanged". Numeric names pass
// through.
func resolveIDs(owner, group string) (uid, gid int, err error) {
	uid, gid = -1, -1

	if owner != "" {
		if n, convErr := strconv.Atoi(owner); convErr == nil {
			uid = n
		} else {
			u, lookupErr := user.Lookup(owner)
			if lookupErr != nil {
				return -1, -1, NewPathError("lookup", owner, "unknown user", ErrUnknownOwner)
			}
			uid, _ = strconv.Atoi(u.Uid)
			// Owner's primary group is the fallback when no group is given.
			if group == "" {
				gid, _ = strconv.Atoi(u.Gid)
			}
		}
	}
	if group != "" {
		if n, convErr := strconv.Atoi(group); convErr == nil {
			gid = n
		} else {
			g, lookupErr := user.LookupGroup(group)
			if lookupErr != nil {
				return -1, -1, NewPathError("lookup", group, "unknown group", ErrUnknownOwner)
			}
			gid, _ = strconv.Atoi(g.Gid)
		}
	}
	return uid, gid, nil
}

// chown applies ownership to path when an owner or group was requested.
func chown(path, owner, group string) error {
	if owner == "" && group == "" {
		return nil
	}
	uid, gid, err := resolveIDs(owner, group)
	if err != nil {
		return err
	}
	if err := os.Chown(path, uid, gid); err != nil {
		return NewPathError("chown", path, err.Error(), err)
	}
	return nil
}
