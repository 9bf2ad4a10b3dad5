package codec

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFactory() Factory {
	return NewFactory(testNS, KindObject, Constructors{
		"order": func() Component { return &order{} },
		"item":  func() Component { return &item{} },
	})
}

func TestRegistry_DuplicateNamespace(t *testing.T) {
	_, err := NewRegistry(testFactory(), testFactory())
	assert.ErrorIs(t, err, ErrDuplicateNamespace)
}

func TestRegistry_Decode(t *testing.T) {
	reg, err := NewRegistry(testFactory())
	require.NoError(t, err)

	doc, err := Parse([]byte(`<t:item xmlns:t="urn:example:test-1.0"><t:name>n</t:name><t:price>2</t:price></t:item>`))
	require.NoError(t, err)

	c, err := reg.Decode(doc.Root())
	require.NoError(t, err)
	it, ok := c.(*item)
	require.True(t, ok, "expected *item, got %T", c)
	assert.Equal(t, "n", it.Name)
}

func TestRegistry_UnknownElement(t *testing.T) {
	reg, err := NewRegistry(testFactory())
	require.NoError(t, err)

	t.Run("unknown namespace", func(t *testing.T) {
		doc, err := Parse([]byte(`<x:item xmlns:x="urn:nope"/>`))
		require.NoError(t, err)
		_, err = reg.Decode(doc.Root())
		assert.ErrorIs(t, err, ErrUnknownElement)
	})

	t.Run("unknown local name", func(t *testing.T) {
		doc, err := Parse([]byte(`<t:invoice xmlns:t="urn:example:test-1.0"/>`))
		require.NoError(t, err)
		_, err = reg.Decode(doc.Root())
		assert.ErrorIs(t, err, ErrUnknownElement)
	})
}

func TestRegistry_URIsByKind(t *testing.T) {
	ext := NewFactory(Namespace{Prefix: "e", URI: "urn:example:ext-1.0"}, KindExtension, Constructors{})
	other := NewFactory(Namespace{Prefix: "a", URI: "urn:example:a-1.0"}, KindObject, Constructors{})
	reg, err := NewRegistry(testFactory(), ext, other)
	require.NoError(t, err)

	assert.Equal(t, []string{"urn:example:a-1.0", "urn:example:test-1.0"}, reg.URIs(KindObject))
	assert.Equal(t, []string{"urn:example:ext-1.0"}, reg.URIs(KindExtension))
}

func TestRegistry_ConcurrentLookup(t *testing.T) {
	reg, err := NewRegistry(testFactory())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := reg.Lookup(testNS.URI)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}

func TestRegistry_DecodeChildrenOrRaw(t *testing.T) {
	reg, err := NewRegistry(testFactory())
	require.NoError(t, err)

	t.Run("unclaimed namespace is kept raw", func(t *testing.T) {
		doc, err := Parse([]byte(`<extension xmlns:x="urn:example:other-1.0">` +
			`<t:item xmlns:t="urn:example:test-1.0"><t:name>n</t:name><t:price>2</t:price></t:item>` +
			`<x:creData><x:id x:kind="a">42</x:id></x:creData></extension>`))
		require.NoError(t, err)

		comps, err := reg.DecodeChildrenOrRaw(doc.Root())
		require.NoError(t, err)
		require.Len(t, comps, 2)
		_, ok := comps[0].(*item)
		assert.True(t, ok, "claimed namespace decodes to its component, got %T", comps[0])

		raw, ok := comps[1].(*Raw)
		require.True(t, ok, "expected *Raw, got %T", comps[1])
		assert.Equal(t, "urn:example:other-1.0", raw.URI)
		assert.Equal(t, "creData", raw.Local)
		assert.Equal(t, `<x:creData xmlns:x="urn:example:other-1.0"><x:id x:kind="a">42</x:id></x:creData>`, raw.String())

		out := NewDocument()
		_, err = raw.Encode(out.CreateElement("extension"))
		require.NoError(t, err)
		b, err := Marshal(out)
		require.NoError(t, err)
		assert.Contains(t, string(b), `<extension><x:creData xmlns:x="urn:example:other-1.0"><x:id x:kind="a">42</x:id></x:creData></extension>`)
	})

	t.Run("claimed namespace stays strict", func(t *testing.T) {
		doc, err := Parse([]byte(`<extension><t:invoice xmlns:t="urn:example:test-1.0"/></extension>`))
		require.NoError(t, err)
		_, err = reg.DecodeChildrenOrRaw(doc.Root())
		assert.ErrorIs(t, err, ErrUnknownElement)
	})
}

func TestRaw_EncodeRequiresElement(t *testing.T) {
	_, err := (&Raw{}).Encode(NewDocument().CreateElement("extension"))
	assert.ErrorIs(t, err, ErrMissing)
}
