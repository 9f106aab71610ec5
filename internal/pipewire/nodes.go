// Package pipewire discovers audio nodes from pw-cli output.
package pipewire

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmylchreest/sinkrec/internal/command"
)

// Property keys read from node blocks.
const (
	PropSerial      = "object.serial"
	PropMediaClass  = "media.class"
	PropDescription = "node.description"
	PropName        = "node.name"
)

// Default sink matching values.
const (
	DefaultMediaClass         = "Audio/Sink"
	DefaultDescriptionPattern = "HD Audio Controller Analog Stereo$"
)

// ErrSinkNotFound is returned when no node block satisfies the matcher.
var ErrSinkNotFound = errors.New("unable to find audio sink")

var (
	reBlockStart = regexp.MustCompile(`^id ([0-9]+), type (.*)$`)
	reProperty   = regexp.MustCompile(`^\*?\s*([A-Za-z0-9_.\-:]+) = "(.*)"$`)
)

// Node is one object block of `pw-cli list-objects Node`.
type Node struct {
	ID    int
	Type  string
	Props map[string]string
}

// Serial returns the object.serial property, if present and numeric.
func (n Node) Serial() (int, bool) {
	v, ok := n.Props[PropSerial]
	if !ok {
		return 0, false
	}
	serial, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return serial, true
}

// Description returns the node.description property.
func (n Node) Description() string {
	return n.Props[PropDescription]
}

// Sink is a resolved audio sink.
type Sink struct {
	ID          int
	Serial      int
	Name        string
	Description string
}

func (s Sink) String() string {
	return fmt.Sprintf("%s (id %d, serial %d)", s.Description, s.ID, s.Serial)
}

// Matcher selects the sink to record from.
type Matcher struct {
	MediaClass  string
	Description *regexp.Regexp
}

// NewMatcher compiles a matcher. Empty values fall back to the defaults.
func NewMatcher(mediaClass, descriptionPattern string) (Matcher, error) {
	if mediaClass == "" {
		mediaClass = DefaultMediaClass
	}
	if descriptionPattern == "" {
		descriptionPattern = DefaultDescriptionPattern
	}
	re, err := regexp.Compile(descriptionPattern)
	if err != nil {
		return Matcher{}, fmt.Errorf("invalid sink description pattern: %w", err)
	}
	return Matcher{MediaClass: mediaClass, Description: re}, nil
}

// Match reports whether both the media class and the description match.
func (m Matcher) Match(n Node) bool {
	if n.Props[PropMediaClass] != m.MediaClass {
		return false
	}
	return m.Description != nil && m.Description.MatchString(n.Description())
}

// ParseNodes splits pw-cli output into node blocks.
// Lines before the first block header are ignored.
func ParseNodes(output string) ([]Node, error) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var nodes []Node
	var current *Node

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if m := reBlockStart.FindStringSubmatch(line); m != nil {
			if current != nil {
				nodes = append(nodes, *current)
			}
			id, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("invalid node id %q: %w", m[1], err)
			}
			current = &Node{ID: id, Type: m[2], Props: make(map[string]string)}
			continue
		}

		if current == nil {
			continue
		}
		if m := reProperty.FindStringSubmatch(line); m != nil {
			current.Props[m[1]] = m[2]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading node list: %w", err)
	}

	if current != nil {
		nodes = append(nodes, *current)
	}
	return nodes, nil
}

// ResolveSink returns the first node that satisfies the matcher and carries a serial.
func ResolveSink(nodes []Node, m Matcher) (Sink, error) {
	for _, n := range nodes {
		if !m.Match(n) {
			continue
		}
		serial, ok := n.Serial()
		if !ok {
			continue
		}
		return Sink{
			ID:          n.ID,
			Serial:      serial,
			Name:        n.Props[PropName],
			Description: n.Description(),
		}, nil
	}
	return Sink{}, ErrSinkNotFound
}

// ListSinks returns every node whose media class matches m.
func ListSinks(nodes []Node, m Matcher) []Node {
	var sinks []Node
	for _, n := range nodes {
		if n.Props[PropMediaClass] == m.MediaClass {
			sinks = append(sinks, n)
		}
	}
	return sinks
}

// Client queries PipeWire through pw-cli.
type Client struct {
	runner command.Runner
}

// NewClient creates a new Client.
func NewClient(runner command.Runner) *Client {
	return &Client{runner: runner}
}

// Nodes lists all node objects.
func (c *Client) Nodes(ctx context.Context) ([]Node, error) {
	out, err := c.runner.Output(ctx, "pw-cli", "list-objects", "Node")
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return ParseNodes(string(out))
}

// FindSink lists nodes and resolves the sink selected by m.
func (c *Client) FindSink(ctx context.Context, m Matcher) (Sink, error) {
	nodes, err := c.Nodes(ctx)
	if err != nil {
		return Sink{}, err
	}
	return ResolveSink(nodes, m)
}
