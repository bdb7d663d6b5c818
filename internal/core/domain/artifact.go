package domain

// ArtifactType is the platform item type of a deployable unit.
type ArtifactType string

const (
	TypeNotebook     ArtifactType = "Notebook"
	TypeDataPipeline ArtifactType = "DataPipeline"
	TypeFolder       ArtifactType = "Folder"
)

// WorkspaceRole distinguishes the two workspaces of a promotion run.
type WorkspaceRole string

const (
	RoleSource WorkspaceRole = "source"
	RoleTarget WorkspaceRole = "target"
)

// WorkspaceRef identifies a workspace for the duration of a run.
type WorkspaceRef struct {
	WorkspaceID string
	Role        WorkspaceRole
}

// DefinitionPart is one file of an item definition as the platform ships it:
// a path plus a base64 payload.
type DefinitionPart struct {
	Path        string `json:"path"`
	Payload     string `json:"payload"`
	PayloadType string `json:"payloadType"`
}

// Definition is the opaque multi-part payload of a notebook or pipeline.
type Definition struct {
	Parts []DefinitionPart `json:"parts"`
}

// Part returns the definition part at the given path.
func (d Definition) Part(path string) (DefinitionPart, bool) {
	for _, p := range d.Parts {
		if p.Path == path {
			return p, true
		}
	}
	return DefinitionPart{}, false
}

// WithPart returns a copy of the definition with the part at path replaced.
func (d Definition) WithPart(part DefinitionPart) Definition {
	out := Definition{Parts: make([]DefinitionPart, len(d.Parts))}
	copy(out.Parts, d.Parts)
	for i, p := range out.Parts {
		if p.Path == part.Path {
			out.Parts[i] = part
			return out
		}
	}
	out.Parts = append(out.Parts, part)
	return out
}

// Artifact is a deployable unit read from the source workspace. The
// platform-assigned ID is only meaningful within its workspace; identity
// across workspaces is (Type, Name).
type Artifact struct {
	ID                string
	Name              string
	Type              ArtifactType
	SourceWorkspaceID string
	Definition        Definition
	FolderPath        string
}

// Key is the workspace-independent identity of an artifact.
func (a Artifact) Key() string {
	return string(a.Type) + "/" + a.Name
}
