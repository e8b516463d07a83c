package classify

// Category is one tag of the fixed size taxonomy.
type Category string

const (
	Exception      Category = "exception"
	RTTIVTable     Category = "rtti_vtable"
	StdFunction    Category = "std_function"
	UnorderedMap   Category = "unordered_map"
	STLString      Category = "stl_string"
	STLVector      Category = "stl_vector"
	STLOther       Category = "stl_other"
	ModuleMetadata Category = "module_metadata"
	CRTStartup     Category = "crt_startup"
	ThreadLocal    Category = "thread_local"
	Guard          Category = "guard"
	GlobalCtor     Category = "global_ctor"
	VirtualInline  Category = "virtual_inline"
	CodeMy         Category = "code_my"
	CodeLib        Category = "code_lib"
	Data           Category = "data"
	Other          Category = "other"
)

// Taxonomy lists every category in precedence order.
var Taxonomy = []Category{
	Exception,
	RTTIVTable,
	StdFunction,
	UnorderedMap,
	STLString,
	STLVector,
	STLOther,
	ModuleMetadata,
	CRTStartup,
	ThreadLocal,
	Guard,
	GlobalCtor,
	VirtualInline,
	CodeMy,
	CodeLib,
	Data,
	Other,
}

// Containers are the categories counted as generic-container instantiation overhead.
var Containers = []Category{STLString, STLVector, STLOther, UnorderedMap, StdFunction}

var taxonomyIndex = func() map[Category]int {
	m := make(map[Category]int, len(Taxonomy))
	for i, c := range Taxonomy {
		m[c] = i
	}
	return m
}()

// Rank returns the position of c in the taxonomy, or len(Taxonomy) for unknown tags.
func Rank(c Category) int {
	if i, ok := taxonomyIndex[c]; ok {
		return i
	}
	return len(Taxonomy)
}

func IsContainer(c Category) bool {
	for _, k := range Containers {
		if k == c {
			return true
		}
	}
	return false
}

func (c Category) Valid() bool {
	_, ok := taxonomyIndex[c]
	return ok
}
