package generation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{
			name:  "bare array",
			input: `["苏轼","李白"]`,
			want:  `["苏轼","李白"]`,
			found: true,
		},
		{
			name:  "array wrapped in prose",
			input: "识别结果如下：[\"苏轼\"]，请查收。",
			want:  `["苏轼"]`,
			found: true,
		},
		{
			name:  "object in code fence",
			input: "```json\n{\"ancient\":\"眉州\",\"modern\":\"四川眉山\"}\n```",
			want:  `{"ancient":"眉州","modern":"四川眉山"}`,
			found: true,
		},
		{
			name:  "nested structures stay balanced",
			input: `result: [{"text":"a","inner":[1,2]},{"text":"b"}] done`,
			want:  `[{"text":"a","inner":[1,2]},{"text":"b"}]`,
			found: true,
		},
		{
			name:  "brackets inside strings are ignored",
			input: `{"text":"含[括号]与\"引号\"的值"}`,
			want:  `{"text":"含[括号]与\"引号\"的值"}`,
			found: true,
		},
		{
			name:  "unbalanced block",
			input: `[{"text":"a"`,
			found: false,
		},
		{
			name:  "no block at all",
			input: "没有任何结构化输出",
			found: false,
		},
		{
			name:  "empty input",
			input: "",
			found: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ExtractJSONBlock(tc.input)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEventsFromContext(t *testing.T) {
	t.Parallel()

	t.Run("no callback attached yields noop", func(t *testing.T) {
		t.Parallel()
		fn := EventsFromContext(context.Background())
		assert.NotPanics(t, func() { fn("message") })
	})

	t.Run("attached callback receives messages", func(t *testing.T) {
		t.Parallel()
		var got []string
		ctx := ContextWithEvents(context.Background(), func(msg string) { got = append(got, msg) })
		EventsFromContext(ctx)("第一条")
		EventsFromContext(ctx)("第二条")
		assert.Equal(t, []string{"第一条", "第二条"}, got)
	})
}
