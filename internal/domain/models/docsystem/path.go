package docsystem

import "strings"

// RootEmplacement is the emplacement of top-level documents
const RootEmplacement = "root"

// NormalizeEmplacement canonicalizes a user-supplied folder path.
//
// Examples:
//   - "", "/", "root" → "root"
//   - "root/HR" → "HR"
//   - "/HR//Policies/" → "HR/Policies"
func NormalizeEmplacement(p string) string {
	var parts []string
	for _, seg := range strings.Split(p, "/") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		parts = append(parts, seg)
	}
	if len(parts) > 0 && parts[0] == RootEmplacement {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return RootEmplacement
	}
	return strings.Join(parts, "/")
}

// JoinPath builds the canonical path of a folder titled title inside emplacement
func JoinPath(emplacement, title string) string {
	if emplacement == "" || emplacement == RootEmplacement {
		return title
	}
	return emplacement + "/" + title
}

// SplitPath splits a canonical folder path into its emplacement and title.
// SplitPath("A/B") → ("A", "B"); SplitPath("A") → ("root", "A").
func SplitPath(p string) (emplacement, title string) {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return RootEmplacement, p
	}
	return p[:idx], p[idx+1:]
}

// IsWithin reports whether path equals ancestor or lies somewhere below it.
// "HR2" is not within "HR".
func IsWithin(path, ancestor string) bool {
	if ancestor == RootEmplacement {
		return true
	}
	return path == ancestor || strings.HasPrefix(path, ancestor+"/")
}

// RebasePath rewrites a path located within oldPrefix so it sits under newPrefix.
// Paths outside oldPrefix are returned unchanged.
func RebasePath(path, oldPrefix, newPrefix string) string {
	if path == oldPrefix {
		return newPrefix
	}
	if strings.HasPrefix(path, oldPrefix+"/") {
		return newPrefix + path[len(oldPrefix):]
	}
	return path
}
