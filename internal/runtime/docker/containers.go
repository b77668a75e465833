package docker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Container is one row of `docker ps`.
type Container struct {
	ID     string `json:"ID"`
	Names  string `json:"Names"`
	Image  string `json:"Image"`
	State  string `json:"State"`
	Status string `json:"Status"`
}

// ShortID returns the first twelve characters of the container id.
func (c Container) ShortID() string {
	if len(c.ID) > 12 {
		return c.ID[:12]
	}
	return c.ID
}

// ListContainers returns the running containers.
func (c *Client) ListContainers(ctx context.Context) ([]Container, error) {
	stdout, stderr, code, err := c.run(ctx, []string{"ps", "--no-trunc", "--format", "{{json .}}"})
	if err != nil {
		return nil, err
	}
	if code != 0 {
		return nil, &DaemonError{ExitCode: code, Stderr: strings.TrimSpace(string(stderr))}
	}
	return parseContainers(stdout)
}

// Find resolves ref to a running container. ref may be a full id, a unique id
// prefix or a container name.
func (c *Client) Find(ctx context.Context, ref string) (Container, error) {
	containers, err := c.ListContainers(ctx)
	if err != nil {
		return Container{}, err
	}
	return matchContainer(containers, ref)
}

func parseContainers(data []byte) ([]Container, error) {
	var containers []Container
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ctr Container
		if err := json.Unmarshal(line, &ctr); err != nil {
			return nil, fmt.Errorf("failed to parse docker ps output: %w", err)
		}
		containers = append(containers, ctr)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return containers, nil
}

func matchContainer(containers []Container, ref string) (Container, error) {
	if ref == "" {
		return Container{}, fmt.Errorf("%w: empty reference", ErrContainerNotFound)
	}

	var matches []Container
	for _, ctr := range containers {
		if ctr.ID == ref {
			return ctr, nil
		}
		for _, name := range strings.Split(ctr.Names, ",") {
			if name == ref {
				return ctr, nil
			}
		}
		if strings.HasPrefix(ctr.ID, ref) {
			matches = append(matches, ctr)
		}
	}

	switch len(matches) {
	case 0:
		return Container{}, fmt.Errorf("%w: %s", ErrContainerNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ShortID()
		}
		return Container{}, &AmbiguousReferenceError{Ref: ref, Matches: ids}
	}
}
