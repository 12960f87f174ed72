// Package model defines the semantic code engine's data model: containers,
// blocks, relationships, versions, branches, commits, changes and
// migrations, and the invariants that bind them.
package model

import "time"

// ContainerType enumerates the kinds of translation unit a Container can be.
type ContainerType string

const (
	ContainerFile    ContainerType = "file"
	ContainerModule  ContainerType = "module"
	ContainerPackage ContainerType = "package"
)

// Container is a file or logical translation unit ingested into the store.
type Container struct {
	ID            string
	Name          string
	ContainerType ContainerType
	Language      string
	OriginalPath  string
	OriginalHash  string
	Version       int
	MigrationID   string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Semantic summary and parsing metadata are open-schema: additive,
	// language-specific fields that do not warrant their own columns.
	ParsingMetadata map[string]interface{}
}

// BlockType is the closed enum of semantic units C2 extracts.
type BlockType string

const (
	BlockFunction  BlockType = "Function"
	BlockMethod    BlockType = "Method"
	BlockClass     BlockType = "Class"
	BlockInterface BlockType = "Interface"
	BlockModule    BlockType = "Module"
	BlockImport    BlockType = "Import"
	BlockExport    BlockType = "Export"
	BlockVariable  BlockType = "Variable"
	BlockConstant  BlockType = "Constant"
	BlockStatement BlockType = "Statement"
	BlockExprOther BlockType = "Expression"
	BlockComment   BlockType = "Comment"
	BlockOther     BlockType = "Other"
)

// AbstractSyntax bundles the three representations of a block's source text
// that fingerprinting and diffing need.
type AbstractSyntax struct {
	RawText            string
	NormalizedStructure []string // sequence of child node kinds, identifiers/literals erased
	TokenSequence      []string
}

// ComplexityMetrics are computed once per block by the extractor.
type ComplexityMetrics struct {
	Cyclomatic  int
	Cognitive   int
	LinesOfCode int
}

// Block is a semantically named unit extracted from a Container.
type Block struct {
	ID             string
	ContainerID    string
	BlockType      BlockType
	SemanticName   *string // nil for anonymous blocks
	AbstractSyntax AbstractSyntax
	Position       int // byte-ordered position within the container
	IndentLevel    int

	ParentBlockID     *string
	PositionInParent  int
	DepthLevel        int
	HierarchicalIndex int

	Parameters   []Parameter
	ReturnType   string
	Modifiers    []string // ordered
	Decorators   []string

	LanguageFeatures map[string]interface{} // unmapped node kinds land here
	ComplexityMetrics ComplexityMetrics
	ScopeInfo         map[string]interface{}
	SemanticSignature string
	AttachedComments  []string

	// SourceLanguage mirrors Container.Language, denormalized for the
	// blocks(source_language) index.
	SourceLanguage string
}

// Parameter is one formal parameter of a Function/Method block.
type Parameter struct {
	Name string
	Type string
}

// RelationshipType is the closed(ish) set of edge kinds between blocks.
type RelationshipType string

const (
	RelContains   RelationshipType = "contains"
	RelCalls      RelationshipType = "calls"
	RelImports    RelationshipType = "imports"
	RelInherits   RelationshipType = "inherits"
	RelImplements RelationshipType = "implements"
	RelUses       RelationshipType = "uses"
	RelDependsOn  RelationshipType = "depends_on"
	RelTests      RelationshipType = "tests"
)

// BlockRelationship is a typed edge between two blocks. The composite
// (SourceBlockID, TargetBlockID, RelationshipType) is the identity.
type BlockRelationship struct {
	SourceBlockID    string
	TargetBlockID    string
	RelationshipType RelationshipType
	Strength         float64
	Bidirectional    bool
	Metadata         map[string]interface{}

	// Unresolved marks a relationship whose TargetBlockID is a placeholder
	// external id (the target's SemanticName, prefixed), pending the
	// cross-container resolution pass.
	Unresolved bool
}

// LLMAttribution records provenance when a BlockVersion originates from a
// recorded LLM interaction. It is never populated by the core itself.
type LLMAttribution struct {
	Provider    string
	Model       string
	PromptID    string
	Temperature float64
	Reasoning   string
}

// ChangeType classifies how a block changed between two versions. A single
// edit may carry more than one ChangeType.
type ChangeType string

const (
	ChangeRenamed            ChangeType = "renamed"
	ChangeSignatureChanged   ChangeType = "signature_changed"
	ChangeBodyChanged        ChangeType = "body_changed"
	ChangeModifierChanged    ChangeType = "modifier_changed"
	ChangeDependencyChanged  ChangeType = "dependency_changed"
)

// BlockVersion is an immutable record of one revision of a Block.
type BlockVersion struct {
	ID              string
	BlockID         string
	VersionNumber   int
	SemanticHash    string
	SyntaxHash      string
	ParentVersionID *string
	BreakingChange  bool
	ChangeTypes     []ChangeType
	ChangeDescription string
	LLM             *LLMAttribution
	CreatedAt       time.Time
}

// SemanticBranch is a named pointer to a head commit on a repository.
type SemanticBranch struct {
	Name           string
	MigrationID    string
	HeadCommitHash string
	BaseCommitHash string
	CreatedAt      time.Time
}

// SemanticChange is one block's before/after state within a commit.
type SemanticChange struct {
	ID            string
	BlockID       string
	BeforeVersion *string
	AfterVersion  string
}

// SemanticCommit groups a set of SemanticChanges with a pure-function hash.
type SemanticCommit struct {
	Hash            string
	ParentHash      string
	Author          string
	Message         string
	Changes         []SemanticChange
	CreatedAt       time.Time
}

// MigrationStatus is the lifecycle state of one ingestion run.
type MigrationStatus string

const (
	MigrationPending    MigrationStatus = "pending"
	MigrationInProgress MigrationStatus = "in_progress"
	MigrationCompleted  MigrationStatus = "completed"
	MigrationFailed     MigrationStatus = "failed"
	MigrationRolledBack MigrationStatus = "rolled_back"
)

// MigrationStats are the statistics a completed (or failed) Migration
// exposes, including diagnostics for files skipped by reason.
type MigrationStats struct {
	Files         int
	Blocks        int
	Relationships int
	Bytes         int64
	Duration      time.Duration
	SkippedByReason map[string]int
	Errors          []string
}

// Migration is one ingestion run for a repository.
type Migration struct {
	ID             string
	RepoName       string
	RepoURL        string
	CommitHash     string
	SourceLanguage string
	TargetLanguage string
	Status         MigrationStatus
	Stats          MigrationStats
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
