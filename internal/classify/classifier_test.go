package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VladMinzatu/mapprof/internal/mapfile"
)

func sym(name, obj string) *mapfile.SizedSymbol {
	return &mapfile.SizedSymbol{
		RawSymbol: mapfile.RawSymbol{Name: name, Object: obj, ObjectPath: obj},
		Size:      0x10,
	}
}

func TestClassify(t *testing.T) {
	c := Default()

	tests := []struct {
		name string
		sym  string
		obj  string
		want Category
	}{
		{name: "exception", sym: "__CxxFrameHandler4", obj: "libvcruntime:frame.obj", want: Exception},
		{name: "vftable", sym: "??_7Widget@@6B@", obj: "widget.obj", want: RTTIVTable},
		{name: "type_info", sym: "??_R0?AVtype_info@@@8", obj: "app.obj", want: RTTIVTable},
		{name: "lambda", sym: "?<lambda_1>@main@@", obj: "app.obj", want: StdFunction},
		{name: "func_impl", sym: "?_Do_call@?$_Func_impl_no_alloc@V<lambda_2>@@", obj: "app.obj", want: StdFunction},
		{name: "hash", sym: "?_Hash_array_representation@std@@", obj: "app.obj", want: UnorderedMap},
		{name: "string", sym: "?assign@?$basic_string@DU?$char_traits@D@std@@@std@@", obj: "app.obj", want: STLString},
		{name: "vector", sym: "?size@?$vector@H@std@@QEBA_KXZ", obj: "app.obj", want: STLVector},
		{name: "tree", sym: "?insert@?$_Tree@V?$_Tmap_traits@HH@std@@@std@@", obj: "app.obj", want: STLOther},
		{name: "module_keyword", sym: "?__CxxModuleInit@core@@", obj: "core.obj", want: ModuleMetadata},
		{name: "scrt", sym: "__scrt_common_main_seh", obj: "MSVCRT:exe_common.obj", want: CRTStartup},
		{name: "crt_startup", sym: "mainCRTStartup", obj: "MSVCRT:exe_main.obj", want: CRTStartup},
		{name: "tls", sym: "TlsGetValueWrapper", obj: "app.obj", want: ThreadLocal},
		{name: "tls_underscore_is_exception", sym: "__dyn_tls_init", obj: "MSVCRT:tlsdyn.obj", want: Exception},
		{name: "atexit_mangled", sym: "??__Fg_cache@@YAXXZ", obj: "app.obj", want: GlobalCtor},
		{name: "guard", sym: "__guard_dispatch_icall_fptr", obj: "MSVCRT:guard.obj", want: Guard},
		{name: "dynamic_initializer", sym: "??__Eg_registry_init@@YAXXZ", obj: "app.obj", want: UnorderedMap},
		{name: "global_ctor", sym: "`dynamic initializer for 'instance''", obj: "app.obj", want: GlobalCtor},
		{name: "vcall", sym: "Widget::`vcall'{8}'", obj: "widget.obj", want: VirtualInline},
		{name: "global_data", sym: "?g_counter@@3HA", obj: "app.obj", want: Data},
		{name: "business_code", sym: "?execute@App@@QEAAXXZ", obj: "app.obj", want: CodeMy},
		{name: "library_code", sym: "memcpy", obj: "libvcruntime:memcpy.obj", want: CodeLib},
		{name: "module_object_fallback", sym: "?compute@core@@", obj: "core.cppm.obj", want: ModuleMetadata},
		{name: "unknown_object", sym: "plain", obj: mapfile.UnknownObject, want: CodeMy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(sym(tt.sym, tt.obj)))
		})
	}
}

func TestClassify_Precedence(t *testing.T) {
	c := Default()

	// Unwinding helper instantiated for a container must stay exception machinery.
	s := sym("?_Xthrow@?$vector@H@std@@unordered_map", "app.obj")
	assert.Equal(t, Exception, c.Classify(s))

	// For every pair of rules, a name carrying both keywords lands in the earlier one.
	for i := 0; i < len(DefaultRules); i++ {
		for j := i + 1; j < len(DefaultRules); j++ {
			name := "x" + DefaultRules[j].Keywords[0] + "x" + DefaultRules[i].Keywords[0] + "x"
			got := c.Classify(sym(name, "app.obj"))
			require.Truef(t, Rank(got) <= Rank(DefaultRules[i].Category),
				"name %q classified %s, want rule %d (%s) or earlier", name, got, i, DefaultRules[i].Category)
		}
	}
}

func TestClassify_TotalAndDeterministic(t *testing.T) {
	c := Default()
	names := []string{"", "?", "??_7", "memcpy", "éè", "operator()", "?s_table@@3PAHA"}
	objs := []string{"", mapfile.UnknownObject, "libucrt:a.obj", "a.cppm.obj"}
	for _, n := range names {
		for _, o := range objs {
			first := c.Classify(sym(n, o))
			require.True(t, first.Valid())
			for k := 0; k < 3; k++ {
				assert.Equal(t, first, c.Classify(sym(n, o)))
			}
		}
	}
	assert.Equal(t, Other, c.Classify(nil))
}

func TestClassify_CaseInsensitive(t *testing.T) {
	c := Default()
	assert.Equal(t, Exception, c.Classify(sym("__CXXFRAMEHANDLER3", "a.obj")))
	assert.Equal(t, CodeLib, c.Classify(sym("foo", "LIBUCRT:strlen.obj")))
}

func TestNew_Options(t *testing.T) {
	c := New(Options{
		Rules:            []Rule{{Category: Guard, Keywords: []string{"fence"}}},
		ModuleMarkers:    []string{".ixx.obj"},
		LibraryFragments: []string{"thirdparty"},
	})
	assert.Equal(t, Guard, c.Classify(sym("my_FENCE", "a.obj")))
	assert.Equal(t, ModuleMetadata, c.Classify(sym("f", "m.ixx.obj")))
	assert.Equal(t, CodeLib, c.Classify(sym("f", "ThirdParty_zlib.obj")))
	assert.Equal(t, CodeMy, c.Classify(sym("f", "libucrt:a.obj")))
}

func TestTaxonomy(t *testing.T) {
	require.Len(t, Taxonomy, 17)
	assert.Equal(t, 0, Rank(Exception))
	assert.Equal(t, 16, Rank(Other))
	assert.Equal(t, len(Taxonomy), Rank(Category("bogus")))
	assert.True(t, IsContainer(StdFunction))
	assert.False(t, IsContainer(CodeMy))
	assert.False(t, Category("bogus").Valid())
}
