package mapfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePublics(t *testing.T) {
	t.Run("parses_block_between_header_and_entry_point", func(t *testing.T) {
		lines := []string{
			"  Address         Publics by Value              Rva+Base               Lib:Object",
			"",
			" 0001:00000000       ?execute@App@@QEAAXXZ      0000000140001000 f   app.obj",
			" 0001:00000040       ?size@?$vector@H@std@@QEBA_KXZ 0000000140001040 f i C:\\build\\obj\\widget.obj",
			" 0001:00000080       mainCRTStartup             0000000140001080 f   MSVCRT:exe_main.obj",
			" 0003:00000010       __ImageBase                0000000140000000     <linker-defined>",
			" 0002:00000000       ?g_value@@3HA              0000000140002000     libs/util.lib",
			"",
			" entry point at        0001:00000080",
			"",
			" Static symbols",
			" 0001:00000020       static_fn                  0000000140001020 f   app.obj",
		}
		got := ParsePublics(lines)
		require.Len(t, got, 5)

		assert.Equal(t, "?execute@App@@QEAAXXZ", got[0].Name)
		assert.Equal(t, uint16(1), got[0].Segment)
		assert.Equal(t, uint64(0), got[0].Offset)
		assert.True(t, got[0].HasRVA)
		assert.Equal(t, uint64(0x140001000), got[0].RVA)
		assert.True(t, got[0].Function)
		assert.False(t, got[0].Inline)
		assert.Equal(t, "app.obj", got[0].Object)

		assert.True(t, got[1].Inline)
		assert.Equal(t, `C:\build\obj\widget.obj`, got[1].ObjectPath)
		assert.Equal(t, "widget.obj", got[1].Object)

		assert.Equal(t, "MSVCRT:exe_main.obj", got[2].Object)

		assert.Equal(t, UnknownObject, got[3].Object)
		assert.Equal(t, UnknownObject, got[3].ObjectPath)

		assert.Equal(t, "util.lib", got[4].Object)
		assert.Equal(t, 7, got[4].Line)
	})

	t.Run("short_header_spelling", func(t *testing.T) {
		lines := []string{
			"Publics by Value",
			" 0001:00000010 foo",
		}
		got := ParsePublics(lines)
		require.Len(t, got, 1)
		assert.Equal(t, "foo", got[0].Name)
		assert.False(t, got[0].HasRVA)
		assert.Equal(t, UnknownObject, got[0].Object)
	})

	t.Run("hex_looking_object_is_not_an_rva", func(t *testing.T) {
		lines := []string{
			"Publics by Value",
			" 0001:00000010       foo                        0badf00d.obj",
			" 0001:00000020       bar                        0000000140001020 f   0badf00d.obj",
		}
		got := ParsePublics(lines)
		require.Len(t, got, 2)

		assert.False(t, got[0].HasRVA)
		assert.Equal(t, "0badf00d.obj", got[0].Object)

		assert.True(t, got[1].HasRVA)
		assert.Equal(t, uint64(0x140001020), got[1].RVA)
		assert.True(t, got[1].Function)
		assert.Equal(t, "0badf00d.obj", got[1].Object)
	})

	t.Run("missing_header_yields_nothing", func(t *testing.T) {
		lines := []string{
			" 0001:00000000       ?execute@App@@QEAAXXZ      0000000140001000 f   app.obj",
		}
		assert.Empty(t, ParsePublics(lines))
	})

	t.Run("noise_lines_are_skipped", func(t *testing.T) {
		lines := []string{
			"  Address         Publics by Value              Rva+Base               Lib:Object",
			" ---------------------------------------------",
			" not a symbol",
			" 01:0000 short",
			" 0001:00000000 ok 00401000 f a.o",
		}
		got := ParsePublics(lines)
		require.Len(t, got, 1)
		assert.Equal(t, "a.o", got[0].Object)
		assert.Equal(t, uint64(0x401000), got[0].RVA)
	})
}

func TestObjectBase(t *testing.T) {
	assert.Equal(t, "a.obj", ObjectBase(`C:\x\y\a.obj`))
	assert.Equal(t, "b.o", ObjectBase("/tmp/b.o"))
	assert.Equal(t, "libcmt:crt0.obj", ObjectBase("libcmt:crt0.obj"))
}

func TestHasObjectExtension(t *testing.T) {
	assert.True(t, hasObjectExtension("x.OBJ"))
	assert.True(t, hasObjectExtension("libfoo.a"))
	assert.False(t, hasObjectExtension("<linker-defined>"))
	assert.False(t, hasObjectExtension(".obj"))
	assert.False(t, hasObjectExtension(""))
}
