package ashcache

import (
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
)

// MemberInit is the member name used for caches built from package-level initializers.
const MemberInit = "INIT"

// legalPunct are the non-alphanumeric characters allowed in a cache name.
const legalPunct = ".~,@ ()$-_"

// Site describes where a cache without an explicit name was constructed.
type Site struct {
	Type   string // enclosing type, or the package path for plain functions
	Member string // method or function, MemberInit for package initializers
	Line   int
}

// CallerSite reports the site of the function skip frames above its caller.
// CallerSite(0) describes the function calling CallerSite.
func CallerSite(skip int) (Site, bool) {
	pc, _, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Site{}, false
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return Site{}, false
	}
	return siteFromFunc(fn.Name(), line), true
}

func siteFromFunc(full string, line int) Site {
	full = stripTypeParams(full)

	dir, rest := "", full
	if i := strings.LastIndex(full, "/"); i >= 0 {
		dir, rest = full[:i+1], full[i+1:]
	}

	parts := strings.Split(rest, ".")
	pkg := dir + parts[0]
	parts = parts[1:]

	// closures and init ordinals: pkg.Fn.func1.2, pkg.init.0, pkg.glob..func1
	for len(parts) > 1 {
		last := parts[len(parts)-1]
		if last == "" || isDigits(last) || (strings.HasPrefix(last, "func") && isDigits(last[4:])) {
			parts = parts[:len(parts)-1]
			continue
		}
		break
	}

	site := Site{Type: pkg, Member: MemberInit, Line: line}
	switch {
	case len(parts) == 0 || parts[0] == "init" || parts[0] == "glob":
	case len(parts) > 1:
		site.Type = pkg + "." + strings.Trim(parts[0], "(*)")
		site.Member = strings.TrimSuffix(parts[1], "-fm")
	default:
		site.Member = strings.TrimSuffix(parts[0], "-fm")
	}
	return site
}

func stripTypeParams(s string) string {
	if !strings.Contains(s, "[") {
		return s
	}
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isLegalNameChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r < 0x80:
		return strings.ContainsRune(legalPunct, r)
	default:
		return false
	}
}

// ValidateName checks a cache name against the legal character set.
func ValidateName(name string) error {
	if name == "" {
		return invalidConfigf("cache name must not be empty")
	}
	for i, r := range name {
		if !isLegalNameChar(r) {
			return invalidConfigf("illegal character %q at offset %d in cache name %q", r, i, name)
		}
	}
	return nil
}

func sanitizeNamePart(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' {
			return '.'
		}
		if !isLegalNameChar(r) {
			return '_'
		}
		return r
	}, s)
}

// AutoName derives a unique name from a site and a disambiguating counter value.
func AutoName(site Site, seq uint64) string {
	var b strings.Builder
	b.WriteByte('_')
	b.WriteString(sanitizeNamePart(site.Type))
	b.WriteByte('.')
	b.WriteString(sanitizeNamePart(site.Member))
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(site.Line))
	b.WriteByte('-')
	b.WriteString(strconv.FormatUint(seq, 36))
	return b.String()
}

// QualifiedName builds a name from an owner type and a member, optionally prefixed
// with base and a '~'. The result is validated when the cache is built.
func QualifiedName(base string, owner reflect.Type, member string) (string, error) {
	if owner == nil {
		return "", nullReferencef("owner type is required for a qualified name")
	}
	if member == "" {
		return "", nullReferencef("member is required for a qualified name")
	}
	for owner.Kind() == reflect.Pointer {
		owner = owner.Elem()
	}

	typeName := owner.Name()
	if typeName == "" {
		typeName = owner.String()
	}
	if pkg := owner.PkgPath(); pkg != "" {
		typeName = strings.ReplaceAll(pkg, "/", ".") + "." + typeName
	}

	name := typeName + "." + member
	if base != "" {
		name = base + "~" + name
	}
	return name, nil
}

// resolveName returns the explicit name when set, otherwise an auto name for site.
func resolveName(explicit string, site Site, counter *atomic.Uint64) (string, error) {
	if explicit != "" {
		return explicit, ValidateName(explicit)
	}
	name := AutoName(site, counter.Add(1))
	return name, ValidateName(name)
}
