package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
)

const defaultPollInterval = 2 * time.Second

// DockerEngine runs workflow processes as detached containers of a runner
// image. The runner reads its input namespace from a mounted JSON file and
// prints a single JSON result document as the last line of its stdout.
type DockerEngine struct {
	dockerBin    string
	image        string
	inputsDir    string
	pollInterval time.Duration
}

type DockerOption func(*DockerEngine)

// WithPollInterval overrides how often a waiting process is inspected.
func WithPollInterval(interval time.Duration) DockerOption {
	return func(e *DockerEngine) {
		if interval > 0 {
			e.pollInterval = interval
		}
	}
}

func NewDockerEngine(dockerBin, image, inputsDir string, opts ...DockerOption) (*DockerEngine, error) {
	dockerBin = strings.TrimSpace(dockerBin)
	if dockerBin == "" {
		dockerBin = "docker"
	}
	if _, err := exec.LookPath(dockerBin); err != nil {
		return nil, fmt.Errorf("docker binary not found: %w", err)
	}
	if strings.TrimSpace(image) == "" {
		return nil, errors.New("runner image is required")
	}
	if strings.TrimSpace(inputsDir) == "" {
		inputsDir = os.TempDir()
	}
	e := &DockerEngine{
		dockerBin:    dockerBin,
		image:        image,
		inputsDir:    inputsDir,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *DockerEngine) Submit(ctx context.Context, spec ProcessSpec) (Process, error) {
	if e == nil {
		return nil, errors.New("docker engine not initialized")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	name := "qeapp-" + spec.CallLink + "-" + uuid.NewString()[:8]
	inputsPath := filepath.Join(e.inputsDir, name+".json")
	blob, err := json.Marshal(spec.Inputs)
	if err != nil {
		return nil, fmt.Errorf("encode inputs: %w", err)
	}
	if err := os.WriteFile(inputsPath, blob, 0o600); err != nil {
		return nil, fmt.Errorf("write inputs: %w", err)
	}

	args := []string{
		"run",
		"--detach",
		"--name", name,
		"--network", "host",
		"-v", inputsPath + ":/run/inputs.json:ro",
		"-e", "QEAPP_WORKCHAIN=" + spec.WorkChain,
		"-e", "QEAPP_CALL_LINK=" + spec.CallLink,
		"-e", "QEAPP_PROCESS_LABEL=" + spec.Label,
		e.image,
	}
	cmd := exec.CommandContext(ctx, e.dockerBin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("docker run failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	return &dockerProcess{engine: e, name: name, inputsPath: inputsPath}, nil
}

// processResult is the document the runner prints as its last stdout line.
type processResult struct {
	ExitStatus  int              `json:"exit_status"`
	Outputs     domain.Namespace `json:"outputs"`
	Descendants []Descendant     `json:"descendants"`
}

type dockerProcess struct {
	engine     *DockerEngine
	name       string
	inputsPath string

	mu     sync.Mutex
	done   bool
	result processResult
}

func (p *dockerProcess) ID() string { return p.name }

// Wait polls the container until it exits, then collects the result
// document. A non-zero workflow exit status is not a Wait error; Wait only
// fails when the process cannot be observed.
func (p *dockerProcess) Wait(ctx context.Context) error {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	ticker := time.NewTicker(p.engine.pollInterval)
	defer ticker.Stop()
	for {
		exited, code, err := p.inspect(ctx)
		if err != nil {
			return err
		}
		if exited {
			return p.collect(ctx, code)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

type dockerInspectState struct {
	Status   string `json:"Status"`
	ExitCode int    `json:"ExitCode"`
}

func (p *dockerProcess) inspect(ctx context.Context) (bool, int, error) {
	cmd := exec.CommandContext(ctx, p.engine.dockerBin, "inspect", "--format", "{{json .State}}", p.name)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return false, 0, fmt.Errorf("docker inspect failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	var state dockerInspectState
	if err := json.Unmarshal(out, &state); err != nil {
		return false, 0, fmt.Errorf("parse docker inspect: %w", err)
	}
	exited := strings.EqualFold(strings.TrimSpace(state.Status), "exited")
	return exited, state.ExitCode, nil
}

func (p *dockerProcess) collect(ctx context.Context, containerCode int) error {
	cmd := exec.CommandContext(ctx, p.engine.dockerBin, "logs", "--tail", "1", p.name)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("docker logs failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	result := processResult{ExitStatus: containerCode}
	line := strings.TrimSpace(string(out))
	if strings.HasPrefix(line, "{") {
		if err := json.Unmarshal([]byte(line), &result); err != nil {
			return fmt.Errorf("parse process result: %w", err)
		}
	}

	p.mu.Lock()
	p.done = true
	p.result = result
	p.mu.Unlock()

	os.Remove(p.inputsPath)
	return nil
}

func (p *dockerProcess) FinishedOK() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done && p.result.ExitStatus == 0
}

func (p *dockerProcess) ExitStatus() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result.ExitStatus
}

func (p *dockerProcess) Outputs() domain.Namespace {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result.Outputs
}

func (p *dockerProcess) CalledDescendants() []Descendant {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Descendant(nil), p.result.Descendants...)
}
