package parser

const (
	// generatedHeader marks files produced by code generators
	generatedHeader = "// Code generated"

	// synthesized names for unnamed parameters
	paramPrefix = "p"
)

// deniedInterfaces lists method sets too common to identify a bean:
// fmt.Stringer, fmt.GoStringer, error, json and text (un)marshalers.
var deniedInterfaces = [][]string{
	{"String/0"},
	{"GoString/0"},
	{"Error/0"},
	{"MarshalJSON/0"},
	{"UnmarshalJSON/1"},
	{"MarshalText/0"},
	{"UnmarshalText/1"},
}
