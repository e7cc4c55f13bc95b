// Package portmap turns the service listing found inside the LocalStack
// image into a service name to port table.
package portmap

import (
	"regexp"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/localstack/localstack-go/pkg/log"
)

// DefaultPattern matches entries such as
//
//	'sqs': '{proto}://{host}:4576'
//	'sqs': 'http://{host}:{4576}'
//
// Group 1 is the service name and group 2 the legacy per-service port.
const DefaultPattern = `'(\w+)': '(?:\{proto\}|\w+)://(?:\{host\}|[^':/]+):\{?(\d+)\}?'`

// Map is an immutable service name to port table.
type Map struct {
	ports map[string]int
}

// NewMap copies ports into a new Map.
func NewMap(ports map[string]int) *Map {
	if ports == nil {
		return &Map{ports: map[string]int{}}
	}
	return &Map{ports: maps.Clone(ports)}
}

func (m *Map) Port(service string) (int, bool) {
	port, ok := m.ports[service]
	return port, ok
}

// Services returns the known service names in sorted order.
func (m *Map) Services() []string {
	services := maps.Keys(m.ports)
	sort.Strings(services)
	return services
}

func (m *Map) Len() int {
	return len(m.ports)
}

// Extractor builds a Map from the raw contents of the port config file.
type Extractor interface {
	Extract(text string) (*Map, error)
}

// RegexExtractor assigns the edge port to every service name captured by
// the first group of its pattern. LocalStack serves all APIs on one edge
// port, so the per-service ports in the source text are ignored.
type RegexExtractor struct {
	pattern  *regexp.Regexp
	edgePort int
}

func NewRegexExtractor(pattern string, edgePort int) (*RegexExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrap(err, "compile port pattern")
	}
	if re.NumSubexp() < 1 {
		return nil, errors.Errorf("port pattern %q needs a group for the service name", pattern)
	}
	if edgePort <= 0 || edgePort > 65535 {
		return nil, errors.Errorf("invalid edge port %d", edgePort)
	}
	return &RegexExtractor{pattern: re, edgePort: edgePort}, nil
}

func (e *RegexExtractor) EdgePort() int {
	return e.edgePort
}

// Extract never fails for the regex implementation. Later duplicates
// overwrite earlier ones.
func (e *RegexExtractor) Extract(text string) (*Map, error) {
	ports := make(map[string]int)
	for _, match := range e.pattern.FindAllStringSubmatch(text, -1) {
		ports[match[1]] = e.edgePort
	}
	if len(ports) == 0 {
		log.Warn("no services found in port configuration (%d bytes)", len(text))
	} else {
		log.Debug("found %d services on edge port %d", len(ports), e.edgePort)
	}
	return &Map{ports: ports}, nil
}
