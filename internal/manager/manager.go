// Package manager is the orchestrator: it ties artifact type resolution,
// version fingerprinting, rendering, validation policy, and output placement
// into a single scaffold operation with a per-call step state machine.
package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MikeyVK/stencil/internal/artifact"
	"github.com/MikeyVK/stencil/internal/fsio"
	"github.com/MikeyVK/stencil/internal/policy"
	"github.com/MikeyVK/stencil/internal/render"
	"github.com/MikeyVK/stencil/internal/scaffold"
	"github.com/MikeyVK/stencil/internal/store"
	"github.com/MikeyVK/stencil/internal/validate"
	"github.com/MikeyVK/stencil/internal/version"
)

// Step is one state of the per-call scaffold state machine.
type Step string

const (
	StepStart        Step = "START"
	StepTypeResolved Step = "TYPE_RESOLVED"
	StepHashComputed Step = "HASH_COMPUTED"
	StepRendered     Step = "RENDERED"
	StepValidated    Step = "VALIDATED"
	StepCommitted    Step = "COMMITTED"
)

// CreatedAtFormat is the fixed UTC timestamp format stamped into every
// rendering context and provenance header.
const CreatedAtFormat = "2006-01-02T15:04:05Z"

// Options wires the manager's collaborators. Types, Templates, Scaffolder,
// and FS are required; Versions and History are optional (nil disables
// persistence of fingerprints / call history).
type Options struct {
	Types      *artifact.Registry
	Templates  *render.Store
	Scaffolder *scaffold.Scaffolder
	Versions   *version.Registry
	Validator  validate.Validator
	Dirs       policy.Resolver
	FS         *fsio.Adapter
	TempDir    string
	History    store.Store
	Logger     *zap.Logger
}

// Manager orchestrates scaffold calls.
type Manager struct {
	types      *artifact.Registry
	templates  *render.Store
	scaffolder *scaffold.Scaffolder
	versions   *version.Registry
	validator  validate.Validator
	dirs       policy.Resolver
	fs         *fsio.Adapter
	tempDir    string
	history    store.Store
	log        *zap.Logger

	// Events publishes the per-call lifecycle; the server's websocket hub
	// subscribes here.
	Events *EventBus
}

// New creates a manager from options, filling in no-op defaults for the
// optional collaborators.
func New(opts Options) *Manager {
	m := &Manager{
		types:      opts.Types,
		templates:  opts.Templates,
		scaffolder: opts.Scaffolder,
		versions:   opts.Versions,
		validator:  opts.Validator,
		dirs:       opts.Dirs,
		fs:         opts.FS,
		tempDir:    opts.TempDir,
		history:    opts.History,
		log:        opts.Logger,
		Events:     NewEventBus(),
	}
	if m.validator == nil {
		m.validator = validate.Basic{}
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	if m.tempDir == "" {
		m.tempDir = filepath.Join(os.TempDir(), "stencil")
	}
	return m
}

// ScaffoldArtifact generates one artifact: it resolves the type definition,
// computes and records the version fingerprint, renders and validates the
// content, and commits it. Returns the final path of the committed artifact.
// An abandoned call leaves no partial durable state: the write is the last
// step.
func (m *Manager) ScaffoldArtifact(ctx context.Context, typeID, outputPath string, fields map[string]any) (string, error) {
	callID := uuid.New().String()[:12]
	c := make(map[string]any, len(fields)+8)
	for k, v := range fields {
		c[k] = v
	}
	// Fold the explicit output path into context before anything else so
	// every later step sees a single source of truth.
	if outputPath != "" {
		c["output_path"] = outputPath
	}

	m.recordStart(callID, typeID)
	m.Events.Publish(Event{
		Type: EventScaffoldStarted,
		Data: map[string]string{"call_id": callID, "artifact_type": typeID},
	})

	def, err := m.types.GetArtifact(typeID)
	if err != nil {
		return "", m.fail(callID, typeID, StepTypeResolved, err)
	}
	m.step(callID, StepTypeResolved)

	templateID, err := scaffold.ResolveTemplate(def, c)
	if err != nil {
		return "", m.fail(callID, typeID, StepTypeResolved, err)
	}
	if def.FallbackTemplate != "" && !m.templates.Exists(templateID) {
		m.log.Debug("template missing, using fallback",
			zap.String("template_id", templateID),
			zap.String("fallback", def.FallbackTemplate),
		)
		templateID = def.FallbackTemplate
	}

	meta, err := m.templates.Meta(templateID)
	if err != nil {
		return "", m.fail(callID, typeID, StepHashComputed, err)
	}
	chain, err := m.templates.Chain(templateID)
	if err != nil {
		return "", m.fail(callID, typeID, StepHashComputed, err)
	}
	fingerprint := version.Fingerprint(typeID, templateID, meta.Version, chain)
	m.step(callID, StepHashComputed)

	created := time.Now().UTC().Format(CreatedAtFormat)
	c["created_at"] = created
	c["artifact_type"] = typeID
	c["version"] = fingerprint
	c["template_id"] = templateID

	// Durable artifacts carry their output path into the render so the
	// provenance header can embed it. Explicit value wins over auto
	// resolution.
	finalRel := ""
	if def.Durable() {
		finalRel, err = m.resolveOutputPath(def, c)
		if err != nil {
			return "", m.fail(callID, typeID, StepTypeResolved, err)
		}
		c["output_path"] = finalRel
	}
	c["provenance"] = ProvenanceHeader(def.FileExtension, typeID, fingerprint, created, finalRel)

	result, err := m.scaffolder.Scaffold(def, c)
	if err != nil {
		return "", m.fail(callID, typeID, StepRendered, err)
	}
	m.step(callID, StepRendered)

	if m.versions != nil {
		tiers := append(append([]version.TierEntry{}, chain...), version.TierEntry{
			TemplateID: templateID,
			Version:    meta.Version,
		})
		for i := range tiers {
			if tiers[i].Version == "" {
				tiers[i].Version = version.PlaceholderVersion
			}
		}
		if err := m.versions.SaveVersion(typeID, fingerprint, tiers); err != nil {
			return "", m.fail(callID, typeID, StepRendered, err)
		}
	}

	passed, issues := m.validator.Validate(result.FileName, result.Content)
	if !passed {
		if def.Category == artifact.CategoryCode {
			err := &scaffold.ValidationError{TypeID: typeID, Issues: issues}
			return "", m.fail(callID, typeID, StepValidated, err)
		}
		// Document and transient artifacts log the failure and proceed.
		m.log.Warn("content validation failed, writing anyway",
			zap.String("artifact_type", typeID),
			zap.Strings("issues", issues),
		)
		m.Events.Publish(Event{
			Type: EventScaffoldWarning,
			Data: map[string]any{"call_id": callID, "artifact_type": typeID, "issues": issues},
		})
	}
	m.step(callID, StepValidated)

	if err := ctx.Err(); err != nil {
		return "", m.fail(callID, typeID, StepValidated, err)
	}

	finalPath, err := m.commit(def, finalRel, result)
	if err != nil {
		return "", m.fail(callID, typeID, StepCommitted, err)
	}

	if m.history != nil {
		if err := m.history.CompleteScaffold(callID, fingerprint, finalPath); err != nil {
			m.log.Warn("record scaffold completion", zap.String("call_id", callID), zap.Error(err))
		}
	}
	m.Events.Publish(Event{
		Type: EventScaffoldCompleted,
		Data: map[string]string{
			"call_id":       callID,
			"artifact_type": typeID,
			"fingerprint":   fingerprint,
			"path":          finalPath,
		},
	})
	m.log.Info("artifact scaffolded",
		zap.String("artifact_type", typeID),
		zap.String("fingerprint", fingerprint),
		zap.String("path", finalPath),
	)
	return finalPath, nil
}

// resolveOutputPath returns the workspace-relative path for a durable
// artifact. The generic type requires an explicit path; every other type
// auto-resolves through the directory policy.
func (m *Manager) resolveOutputPath(def artifact.Definition, c map[string]any) (string, error) {
	if explicit, ok := c["output_path"].(string); ok && explicit != "" {
		return explicit, nil
	}
	if def.TypeID == artifact.GenericTypeID {
		return "", &scaffold.ValidationError{TypeID: def.TypeID, Missing: []string{"output_path"}}
	}
	if m.fs == nil {
		return "", &artifact.ConfigError{
			Path: m.types.Source(),
			Hint: "no workspace root configured; set workspace_root in stencil.yaml",
		}
	}

	name, err := scaffold.BaseName(def, c)
	if err != nil {
		return "", err
	}
	fileName := scaffold.FileName(def, name)

	var candidates []string
	if m.dirs != nil {
		candidates = m.dirs.CandidateDirectories(def.TypeID)
	}
	if len(candidates) == 0 {
		return "", &artifact.ConfigError{
			Path: m.types.Source(),
			Hint: fmt.Sprintf("no output directory resolvable for artifact type %q; add an output_dirs entry", def.TypeID),
		}
	}
	// First existing candidate wins; when none exist yet, the first one is
	// created on write.
	dir := candidates[0]
	for _, cand := range candidates {
		abs, err := m.fs.Abs(cand)
		if err != nil {
			continue
		}
		if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
			dir = cand
			break
		}
	}
	return filepath.ToSlash(filepath.Join(dir, fileName)), nil
}

// commit writes the artifact. Transient artifacts go to the temp dir under a
// collision-resistant name; durable ones go through the filesystem adapter.
func (m *Manager) commit(def artifact.Definition, finalRel string, result scaffold.Result) (string, error) {
	if !def.Durable() {
		if err := os.MkdirAll(m.tempDir, 0755); err != nil {
			return "", fmt.Errorf("create temp dir: %w", err)
		}
		ext := filepath.Ext(result.FileName)
		base := strings.TrimSuffix(result.FileName, ext)
		name := fmt.Sprintf("%s_%s%s", base, uuid.New().String()[:8], ext)
		path := filepath.Join(m.tempDir, name)
		if err := os.WriteFile(path, []byte(result.Content), 0644); err != nil {
			return "", fmt.Errorf("write transient artifact: %w", err)
		}
		return path, nil
	}

	if m.fs == nil {
		return "", &artifact.ConfigError{
			Path: m.types.Source(),
			Hint: "no workspace root configured; set workspace_root in stencil.yaml",
		}
	}
	if err := m.fs.Write(finalRel, result.Content); err != nil {
		return "", err
	}
	return m.fs.Abs(finalRel)
}

func (m *Manager) recordStart(callID, typeID string) {
	if m.history == nil {
		return
	}
	err := m.history.CreateScaffold(store.ScaffoldRecord{
		ID:           callID,
		ArtifactType: typeID,
		Step:         string(StepStart),
		Status:       store.StatusRunning,
	})
	if err != nil {
		m.log.Warn("record scaffold start", zap.String("call_id", callID), zap.Error(err))
	}
}

func (m *Manager) step(callID string, s Step) {
	if m.history != nil {
		if err := m.history.UpdateScaffoldStep(callID, string(s)); err != nil {
			m.log.Warn("record scaffold step", zap.String("call_id", callID), zap.Error(err))
		}
	}
	m.Events.Publish(Event{
		Type: EventScaffoldStep,
		Data: map[string]string{"call_id": callID, "step": string(s)},
	})
}

// fail records the terminal failure, tagging it with the step that broke.
func (m *Manager) fail(callID, typeID string, at Step, err error) error {
	if m.history != nil {
		if herr := m.history.FailScaffold(callID, string(at), err.Error()); herr != nil {
			m.log.Warn("record scaffold failure", zap.String("call_id", callID), zap.Error(herr))
		}
	}
	m.Events.Publish(Event{
		Type: EventScaffoldFailed,
		Data: map[string]string{
			"call_id":       callID,
			"artifact_type": typeID,
			"step":          string(at),
			"error":         err.Error(),
		},
	})
	return err
}
