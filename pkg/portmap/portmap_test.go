package portmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractUsesEdgePortForEveryService(t *testing.T) {
	extractor, err := NewRegexExtractor(DefaultPattern, 4566)
	require.NoError(t, err)

	text := "'s3': 'http://{host}:{4572}'\n'sqs': 'http://{host}:{4576}'"
	m, err := extractor.Extract(text)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"s3", "sqs"}, m.Services())

	port, ok := m.Port("s3")
	assert.True(t, ok)
	assert.Equal(t, 4566, port)

	port, ok = m.Port("sqs")
	assert.True(t, ok)
	assert.Equal(t, 4566, port)
}

func TestExtractClientConfigFile(t *testing.T) {
	text := `
# Default service ports
_service_endpoints_template = {
    'apigateway': '{proto}://{host}:4567',
    'kinesis': '{proto}://{host}:4568',
    'dynamodb': '{proto}://{host}:4569',
    'dynamodbstreams': '{proto}://{host}:4570',
    'elasticsearch': '{proto}://{host}:4571',
    's3': '{proto}://{host}:4572',
    'logs': '{proto}://{host}:4586',
}
`
	extractor, err := NewRegexExtractor(DefaultPattern, 4567)
	require.NoError(t, err)

	m, err := extractor.Extract(text)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"apigateway", "dynamodb", "dynamodbstreams", "elasticsearch", "kinesis", "logs", "s3"},
		m.Services())
	for _, service := range m.Services() {
		port, _ := m.Port(service)
		assert.Equal(t, 4567, port, service)
	}
}

func TestExtractNoMatches(t *testing.T) {
	extractor, err := NewRegexExtractor(DefaultPattern, 4566)
	require.NoError(t, err)

	m, err := extractor.Extract("nothing to see here")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	_, ok := m.Port("s3")
	assert.False(t, ok)
}

func TestExtractDuplicateLastWins(t *testing.T) {
	extractor, err := NewRegexExtractor(`(\w+)=(\d+)`, 4566)
	require.NoError(t, err)

	m, err := extractor.Extract("s3=1 sqs=2 s3=3")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	port, ok := m.Port("s3")
	assert.True(t, ok)
	assert.Equal(t, 4566, port)
}

func TestNewRegexExtractorValidation(t *testing.T) {
	tests := map[string]struct {
		pattern  string
		edgePort int
		errMsg   string
	}{
		"bad regex":     {pattern: `(\w+`, edgePort: 4566, errMsg: "compile port pattern"},
		"no group":      {pattern: `\w+`, edgePort: 4566, errMsg: "needs a group"},
		"bad edge port": {pattern: DefaultPattern, edgePort: 0, errMsg: "invalid edge port 0"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewRegexExtractor(tt.pattern, tt.edgePort)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestNewMapIsACopy(t *testing.T) {
	source := map[string]int{"s3": 4566}
	m := NewMap(source)
	source["s3"] = 1
	source["sqs"] = 2

	port, _ := m.Port("s3")
	assert.Equal(t, 4566, port)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, NewMap(nil).Len())
}
