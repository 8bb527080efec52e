package javac

// Implicitly imported java.lang types, keyed by simple name. Member lookup
// needs java.lang.Object in particular: every class inherits its members and
// completion demotes them to the last sort tier.
var builtinClasses = map[string]struct {
	Package string
	Kind    ElemKind
}{
	"Object":              {"java.lang", KindClass},
	"String":              {"java.lang", KindClass},
	"System":              {"java.lang", KindClass},
	"Integer":             {"java.lang", KindClass},
	"Long":                {"java.lang", KindClass},
	"Double":              {"java.lang", KindClass},
	"Float":               {"java.lang", KindClass},
	"Boolean":             {"java.lang", KindClass},
	"Byte":                {"java.lang", KindClass},
	"Character":           {"java.lang", KindClass},
	"Short":               {"java.lang", KindClass},
	"Void":                {"java.lang", KindClass},
	"Number":              {"java.lang", KindClass},
	"Math":                {"java.lang", KindClass},
	"Class":               {"java.lang", KindClass},
	"Thread":              {"java.lang", KindClass},
	"StringBuilder":       {"java.lang", KindClass},
	"StringBuffer":        {"java.lang", KindClass},
	"Enum":                {"java.lang", KindClass},
	"Throwable":           {"java.lang", KindClass},
	"Exception":           {"java.lang", KindClass},
	"RuntimeException":    {"java.lang", KindClass},
	"Error":               {"java.lang", KindClass},
	"Iterable":            {"java.lang", KindInterface},
	"AutoCloseable":       {"java.lang", KindInterface},
	"Runnable":            {"java.lang", KindInterface},
	"Comparable":          {"java.lang", KindInterface},
	"CharSequence":        {"java.lang", KindInterface},
	"Override":            {"java.lang", KindAnnotationType},
	"Deprecated":          {"java.lang", KindAnnotationType},
	"SuppressWarnings":    {"java.lang", KindAnnotationType},
	"SafeVarargs":         {"java.lang", KindAnnotationType},
	"FunctionalInterface": {"java.lang", KindAnnotationType},

	"NullPointerException":          {"java.lang", KindClass},
	"IllegalArgumentException":      {"java.lang", KindClass},
	"IllegalStateException":         {"java.lang", KindClass},
	"IndexOutOfBoundsException":     {"java.lang", KindClass},
	"UnsupportedOperationException": {"java.lang", KindClass},
}

// wellKnownImports maps common JDK simple names outside java.lang to their
// packages, so import fixing can qualify them without platform sources on
// the source path.
var wellKnownImports = map[string]string{
	"List":              "java.util",
	"ArrayList":         "java.util",
	"LinkedList":        "java.util",
	"Map":               "java.util",
	"HashMap":           "java.util",
	"TreeMap":           "java.util",
	"Set":               "java.util",
	"HashSet":           "java.util",
	"TreeSet":           "java.util",
	"Collection":        "java.util",
	"Collections":       "java.util",
	"Iterator":          "java.util",
	"Optional":          "java.util",
	"Arrays":            "java.util",
	"Objects":           "java.util",
	"UUID":              "java.util",
	"Stream":            "java.util.stream",
	"Collectors":        "java.util.stream",
	"IOException":       "java.io",
	"File":              "java.io",
	"InputStream":       "java.io",
	"OutputStream":      "java.io",
	"Reader":            "java.io",
	"Writer":            "java.io",
	"Path":              "java.nio.file",
	"Paths":             "java.nio.file",
	"Files":             "java.nio.file",
	"Instant":           "java.time",
	"Duration":          "java.time",
	"LocalDate":         "java.time",
	"LocalDateTime":     "java.time",
	"BigDecimal":        "java.math",
	"BigInteger":        "java.math",
	"Pattern":           "java.util.regex",
	"Matcher":           "java.util.regex",
	"CompletableFuture": "java.util.concurrent",
	"ConcurrentHashMap": "java.util.concurrent",
	"ExecutorService":   "java.util.concurrent",
	"Executors":         "java.util.concurrent",
	"TimeUnit":          "java.util.concurrent",
}

// objectMembers are the members every class inherits from java.lang.Object.
func objectMembers() []*Element {
	owner := []string{"Object"}
	method := func(name, ret string, params ...Param) *Element {
		return &Element{
			Kind:        KindMethod,
			Name:        name,
			Type:        ret,
			Params:      params,
			PackageName: "java.lang",
			Owner:       owner,
		}
	}
	return []*Element{
		method("equals", "boolean", Param{Name: "obj", Type: "Object"}),
		method("hashCode", "int"),
		method("toString", "String"),
		method("getClass", "Class<?>"),
		method("notify", "void"),
		method("notifyAll", "void"),
		method("wait", "void"),
		method("wait", "void", Param{Name: "timeoutMillis", Type: "long"}),
		method("wait", "void", Param{Name: "timeoutMillis", Type: "long"}, Param{Name: "nanos", Type: "int"}),
		method("clone", "Object"),
		method("finalize", "void"),
	}
}

// builtinClassElement materializes an Element for an implicitly imported
// java.lang type.
func builtinClassElement(simpleName string) (*Element, bool) {
	info, ok := builtinClasses[simpleName]
	if !ok {
		return nil, false
	}
	return &Element{
		Kind:        info.Kind,
		Name:        simpleName,
		PackageName: info.Package,
	}, true
}
