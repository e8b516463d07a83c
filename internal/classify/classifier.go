package classify

import (
	"strings"

	"github.com/VladMinzatu/mapprof/internal/mapfile"
)

// Rule maps a set of name keywords to a category.
type Rule struct {
	Category Category
	Keywords []string
}

// DefaultRules is evaluated top to bottom; the first rule with a keyword
// contained in the symbol name wins.
var DefaultRules = []Rule{
	{Exception, []string{"throw", "catch", "ehstate", "xthrow", "uncaught", "_tls", "seh_", "CxxFrameHandler"}},
	{RTTIVTable, []string{"??_7", "UEAA", "RTTI", "type_info", "`vftable'", "`RTTI Complete Object Locator'"}},
	{StdFunction, []string{"_Func_impl", "lambda", "operator()", "?R", "?A0x"}},
	{UnorderedMap, []string{"unordered_map", "_Hash", "_Umap", "registry", "_HashMap"}},
	{STLString, []string{"?$basic_string", "?$char_traits", "?$allocator"}},
	{STLVector, []string{"?$vector", "?$_Vector", "?$_Reallocate"}},
	{STLOther, []string{"?$list", "?$deque", "?$set", "?$map", "?$_Tree", "?$_List"}},
	{ModuleMetadata, []string{"?__CxxModule", "cppm.obj"}},
	{CRTStartup, []string{"_crt_", "__scrt_", "mainCRTStartup", "WinMainCRTStartup"}},
	{ThreadLocal, []string{"_tls_", "TLS", "thread_local"}},
	{Guard, []string{"_guard", "__guard", "___guard"}},
	{GlobalCtor, []string{"`dynamic initializer", "`dynamic atexit destructor", "??__E", "??__F"}},
	{VirtualInline, []string{"`vcall'", "`scalar deleting destructor'", "`vector deleting destructor'"}},
	{Data, []string{"?g_", "?s_", "?_"}},
}

var (
	DefaultModuleMarkers    = []string{"cppm.obj"}
	DefaultLibraryFragments = []string{"libc", "libvcruntime", "libucrt", "msvcrt", "crt"}
)

type Options struct {
	// Rules overrides DefaultRules when non-empty.
	Rules            []Rule
	ModuleMarkers    []string
	LibraryFragments []string
}

type compiledRule struct {
	category Category
	keywords []string
}

// Classifier is safe for concurrent use; it holds no mutable state.
type Classifier struct {
	rules            []compiledRule
	moduleMarkers    []string
	libraryFragments []string
}

func New(opts Options) *Classifier {
	rules := opts.Rules
	if len(rules) == 0 {
		rules = DefaultRules
	}
	c := &Classifier{
		moduleMarkers:    lowerAll(orDefault(opts.ModuleMarkers, DefaultModuleMarkers)),
		libraryFragments: lowerAll(orDefault(opts.LibraryFragments, DefaultLibraryFragments)),
	}
	for _, r := range rules {
		c.rules = append(c.rules, compiledRule{category: r.Category, keywords: lowerAll(r.Keywords)})
	}
	return c
}

// Default returns a classifier with the built-in rules and fallbacks.
func Default() *Classifier { return New(Options{}) }

// Classify assigns exactly one category to a symbol.
func (c *Classifier) Classify(sym *mapfile.SizedSymbol) Category {
	if sym == nil {
		return Other
	}
	return c.ClassifyName(sym.Name, sym.Object)
}

func (c *Classifier) ClassifyName(name, object string) Category {
	lname := strings.ToLower(name)
	for _, r := range c.rules {
		if containsAny(lname, r.keywords) {
			return r.category
		}
	}

	lobj := strings.ToLower(object)
	if containsAny(lobj, c.moduleMarkers) {
		return ModuleMetadata
	}
	if containsAny(lobj, c.libraryFragments) {
		return CodeLib
	}
	return CodeMy
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}
