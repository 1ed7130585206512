package placename

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/yunhanz/storymap-api/internal/generation"
)

// batchSize bounds how many place names go into a single model request.
const batchSize = 20

const batchSystemPrompt = "你是地名拆解助手。请按输入顺序输出严格 JSON 数组，" +
	"元素格式为 {\"text\":\"\",\"ancient\":\"\",\"modern\":\"\"}。" +
	"无法判断时 ancient/modern 置空。不要输出多余文本。"

// singleSystemPrompts are tried in order for one-off splits until one yields a
// usable answer.
var singleSystemPrompts = []string{
	"你是地名拆解助手。仅返回严格 JSON：{\"ancient\":\"\",\"modern\":\"\"}。不要输出多余文本。无法判断时输出空字符串。",
	"请只输出 JSON 对象，不要任何解释：{\"ancient\":\"古称或历史地名\",\"modern\":\"现代地名\"}。如果无法判断，两个值都输出空字符串。",
}

// Pair holds the ancient and modern name components of a place description.
// Either side may be empty when the model cannot tell.
type Pair struct {
	Ancient string
	Modern  string
}

// Splitter classifies place descriptions into ancient/modern name pairs via a
// chat model. Results are cached; a place text is asked about at most once per
// process, even when the model fails on it.
type Splitter struct {
	chat   generation.ChatModel
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]Pair
}

// NewSplitter creates a Splitter backed by the given chat model.
func NewSplitter(chat generation.ChatModel, logger *slog.Logger) *Splitter {
	return &Splitter{
		chat:   chat,
		logger: logger,
		cache:  make(map[string]Pair),
	}
}

// BatchSplit resolves a batch of place descriptions. Duplicates are collapsed,
// cached entries are served without a model call, and the remainder is sent in
// chunks. A chunk that fails to parse marks all of its members as empty pairs
// so they are not retried. The returned map covers every distinct input text.
func (s *Splitter) BatchSplit(ctx context.Context, texts []string) map[string]Pair {
	ordered := dedupeNonEmpty(texts)
	if len(ordered) == 0 {
		return map[string]Pair{}
	}

	s.mu.Lock()
	pending := make([]string, 0, len(ordered))
	for _, t := range ordered {
		if _, ok := s.cache[t]; !ok {
			pending = append(pending, t)
		}
	}
	s.mu.Unlock()

	events := generation.EventsFromContext(ctx)
	for start := 0; start < len(pending); start += batchSize {
		end := start + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		chunk := pending[start:end]

		payload, err := json.Marshal(chunk)
		if err != nil {
			continue
		}
		events(fmt.Sprintf("请求模型拆解地名：%d 个", len(chunk)))

		raw, err := s.chat.Chat(ctx, batchSystemPrompt, "地名列表："+string(payload))
		if err != nil {
			s.logger.WarnContext(ctx, "place name batch split failed",
				"chunk_size", len(chunk), "error", err)
			raw = ""
		}
		mapping := parseBatch(raw, chunk)

		s.mu.Lock()
		for _, text := range chunk {
			if _, ok := s.cache[text]; ok {
				continue
			}
			s.cache[text] = mapping[text]
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Pair, len(ordered))
	for _, t := range ordered {
		out[t] = s.cache[t]
	}
	return out
}

// Split resolves a single place description, trying the fallback prompts when
// the first yields nothing.
func (s *Splitter) Split(ctx context.Context, text string) Pair {
	text = strings.TrimSpace(text)
	if text == "" {
		return Pair{}
	}

	s.mu.Lock()
	if cached, ok := s.cache[text]; ok {
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	var result Pair
	for _, sysPrompt := range singleSystemPrompts {
		raw, err := s.chat.Chat(ctx, sysPrompt, "地名文本："+text)
		if err != nil {
			s.logger.WarnContext(ctx, "place name split failed", "text", text, "error", err)
			continue
		}
		pair := parseSingle(raw)
		if pair.Ancient != "" || pair.Modern != "" {
			result = pair
			break
		}
	}

	s.mu.Lock()
	s.cache[text] = result
	s.mu.Unlock()
	return result
}

func dedupeNonEmpty(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
