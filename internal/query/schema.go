package query

// CoreSchema declares the block and relationship facts the ingest
// coordinator (C6) asserts once per migration, grounded on the
// Decl-per-predicate style of
// internal/browser/honeypot.go's BrowserSchemas(): one Decl per EDB
// predicate, typed arguments, a short comment banner per group.
func CoreSchema() string {
	return `
# Block facts
Decl block(id: string, container_id: string, block_type: string, semantic_name: string).
Decl cyclomatic(block: string, n: int64).
Decl cognitive(block: string, n: int64).
Decl lines_of_code(block: string, n: int64).
Decl param_count(block: string, n: int64).
Decl container_path(container_id: string, path: string, language: string).

# Relationship facts (contains is asserted from each block's ParentBlockID,
# since internal/store's OutboundEdges leaves contains rows out)
Decl contains(parent: string, child: string).
Decl calls(source: string, target: string).
Decl imports(source: string, target: string).
Decl inherits(source: string, target: string).
Decl implements(source: string, target: string).
Decl uses(source: string, target: string).
Decl depends_on(source: string, target: string).
Decl tests(source: string, target: string).
`
}

// PatternRules returns the structural pattern catalog expressible as
// straight threshold/negation Datalog over the core schema: complexity
// and size thresholds are simple comparisons, and "untested" is the
// negation idiom documented in the pack's predicate corpus builder tool
// (cmd/tools/predicate_corpus_builder/main.go's negation fix template:
// "bound(X), not other(X)"). Patterns that need a self-join with
// inequality (duplicate_name), graph recursion (circular_dependency), or
// raw-text matching (sql_in_loop, hardcoded_secret, unsafe_execution,
// sync_io_in_async_context) are computed directly in Go instead - see
// patterns.go - since nothing in the retrieved corpus demonstrates
// those constructs compiling against this engine build.
func PatternRules() string {
	return `
# Complexity and size thresholds
Decl complex_function(block: string).
complex_function(B) :- cyclomatic(B, N), fn:int64:gt(N, 10).

Decl long_method(block: string).
long_method(B) :- lines_of_code(B, N), fn:int64:gt(N, 50).

Decl many_parameters(block: string).
many_parameters(B) :- param_count(B, N), fn:int64:gt(N, 5).

# Untested function/method: no tests(_, B) fact names it as a target.
Decl has_test(block: string).
has_test(B) :- tests(_, B).

Decl untested_function(block: string).
untested_function(B) :- block(B, _, "Function", _), not has_test(B).
untested_function(B) :- block(B, _, "Method", _), not has_test(B).
`
}
