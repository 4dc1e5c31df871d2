package ashcache

import (
	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/require"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
)

type nameOwner struct{}

// TestSiteFromFunc maps runtime function names to type and member.
func TestSiteFromFunc(t *testing.T) {
	cases := []struct {
		fn     string
		typ    string
		member string
	}{
		{"github.com/a/b.(*Server).Start", "github.com/a/b.Server", "Start"},
		{"github.com/a/b.Server.Start", "github.com/a/b.Server", "Start"},
		{"github.com/a/b.(*Server).Start.func1", "github.com/a/b.Server", "Start"},
		{"github.com/a/b.NewThing", "github.com/a/b", "NewThing"},
		{"github.com/a/b.NewThing[...]", "github.com/a/b", "NewThing"},
		{"github.com/a/b.(*Box[...]).Put", "github.com/a/b.Box", "Put"},
		{"github.com/a/b.TestX.func1.2", "github.com/a/b", "TestX"},
		{"github.com/a/b.init", "github.com/a/b", MemberInit},
		{"github.com/a/b.init.0", "github.com/a/b", MemberInit},
		{"github.com/a/b.glob..func1", "github.com/a/b", MemberInit},
		{"main.main", "main", "main"},
	}
	for _, tc := range cases {
		site := siteFromFunc(tc.fn, 42)
		require.Equal(t, tc.typ, site.Type, tc.fn)
		require.Equal(t, tc.member, site.Member, tc.fn)
		require.Equal(t, 42, site.Line)
	}
}

// TestCallerSite describes the calling test function.
func TestCallerSite(t *testing.T) {
	site, ok := CallerSite(0)
	require.True(t, ok)
	require.Equal(t, "github.com/Borislavv/go-ash-registry", site.Type)
	require.Equal(t, "TestCallerSite", site.Member)
	require.Positive(t, site.Line)
}

// TestValidateName_Legal accepts letters, digits and the allowed punctuation.
func TestValidateName_Legal(t *testing.T) {
	require.NoError(t, ValidateName(".~,@ ()$-_abcABC0123"))
	require.NoError(t, ValidateName("users"))
}

// TestValidateName_Illegal rejects every character outside the legal set.
func TestValidateName_Illegal(t *testing.T) {
	illegal := []rune("{}|\\^&=\"';:<>*?/")
	illegal = append(illegal, 27, 127, 0x80, 'ä', 'ß', 'à', 0xFEFE, '\t', '\n', 0)

	for _, r := range illegal {
		err := ValidateName("abc" + string(r) + "def")
		require.Error(t, err, "%q", r)
		require.True(t, errors.Is(err, ErrInvalidConfiguration), "%q", r)
	}

	err := ValidateName("")
	require.True(t, errors.Is(err, ErrInvalidConfiguration))
}

// TestAutoName builds the documented shape and sanitizes the site.
func TestAutoName(t *testing.T) {
	name := AutoName(Site{Type: "github.com/a/b.Box", Member: "Put", Line: 17}, 36)
	require.Equal(t, "_github.com.a.b.Box.Put-17-10", name)
	require.NoError(t, ValidateName(name))

	name = AutoName(Site{Type: "pkg{x}", Member: "m*", Line: 1}, 1)
	require.Equal(t, "_pkg_x_.m_-1-1", name)
}

// TestResolveName prefers the explicit name and otherwise counts up.
func TestResolveName(t *testing.T) {
	var counter atomic.Uint64
	site := Site{Type: "t", Member: "m", Line: 3}

	name, err := resolveName("explicit", site, &counter)
	require.NoError(t, err)
	require.Equal(t, "explicit", name)
	require.Zero(t, counter.Load())

	first, err := resolveName("", site, &counter)
	require.NoError(t, err)
	second, err := resolveName("", site, &counter)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = resolveName("bad/name", site, &counter)
	require.True(t, errors.Is(err, ErrInvalidConfiguration))
}

// TestQualifiedName joins base, owner and member.
func TestQualifiedName(t *testing.T) {
	owner := reflect.TypeFor[nameOwner]()

	name, err := QualifiedName("base", owner, "field")
	require.NoError(t, err)
	require.Equal(t, "base~github.com.Borislavv.go-ash-registry.nameOwner.field", name)

	name, err = QualifiedName("", reflect.TypeFor[*nameOwner](), "field")
	require.NoError(t, err)
	require.Equal(t, "github.com.Borislavv.go-ash-registry.nameOwner.field", name)
	require.False(t, strings.Contains(name, "~"))

	_, err = QualifiedName("base", nil, "field")
	require.True(t, errors.Is(err, ErrNullReference))

	_, err = QualifiedName("base", owner, "")
	require.True(t, errors.Is(err, ErrNullReference))
}
