package manager

import (
	"fmt"
	"strings"
)

// ProvenanceHeader builds the single leading comment line that generated
// artifacts embed, using the comment syntax for the artifact's file type.
func ProvenanceHeader(fileExt, artifactType, fingerprint, created, outputPath string) string {
	body := fmt.Sprintf("stencil: artifact_type=%s version=%s created=%s output=%s",
		artifactType, fingerprint, created, outputPath)

	switch strings.TrimPrefix(fileExt, ".") {
	case "go", "js", "ts", "java", "c", "cpp", "cs", "rs":
		return "// " + body
	case "md", "html":
		return "<!-- " + body + " -->"
	default:
		// Hash comments cover py, sh, yaml, toml, and most config formats.
		return "# " + body
	}
}
