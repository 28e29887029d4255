package npc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/npcflow/core"
	"github.com/hupe1980/npcflow/logging"
	"github.com/hupe1980/npcflow/model"
)

const ambientSystemPrompt = "你是一个游戏NPC对话生成器,擅长创作自然真实的办公室对话。"

// RoleSource supplies the current NPC cast. *Manager satisfies it.
type RoleSource interface {
	Roles() []core.RoleProfile
}

// AmbientGeneratorOptions holds overrides passed to NewAmbientGenerator.
type AmbientGeneratorOptions struct {
	// Logger receives refresh diagnostics.
	Logger logging.Logger
}

// AmbientGenerator produces one short ambient line per NPC so the cast feels
// alive between player exchanges. A single model call covers the whole cast;
// when the call fails, cannot be parsed, or no model is configured, a
// per-period preset table stands in. Safe for concurrent use.
type AmbientGenerator struct {
	model  model.Model
	roles  RoleSource
	logger logging.Logger
	now    func() time.Time

	mu    sync.RWMutex
	lines map[string]string
}

// NewAmbientGenerator constructs a generator over the given cast. A nil
// model is allowed and serves presets only. The generator starts out seeded
// with the current period's presets so Line never waits on a model call.
func NewAmbientGenerator(m model.Model, roles RoleSource, optFns ...func(o *AmbientGeneratorOptions)) *AmbientGenerator {
	opts := AmbientGeneratorOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	g := &AmbientGenerator{
		model:  m,
		roles:  roles,
		logger: opts.Logger,
		now:    time.Now,
	}

	g.lines = presetLines(g.now().Hour())

	return g
}

// Line returns the current ambient line for one NPC.
func (g *AmbientGenerator) Line(name string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	line, ok := g.lines[name]

	return line, ok
}

// Lines returns a copy of the current ambient lines keyed by NPC name.
func (g *AmbientGenerator) Lines() map[string]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]string, len(g.lines))
	for name, line := range g.lines {
		out[name] = line
	}

	return out
}

// Refresh regenerates the ambient lines and returns the fresh set. Any
// generation or parse failure falls back to the per-period presets, so the
// served lines are always usable.
func (g *AmbientGenerator) Refresh(ctx context.Context) map[string]string {
	lines, err := g.generate(ctx)
	if err != nil {
		if !errors.Is(err, errNoAmbientModel) {
			g.logger.Warn("ambient generation failed, serving presets", "error", err)
		}

		lines = presetLines(g.now().Hour())
	} else {
		g.logger.Debug("ambient lines generated", "count", len(lines))
	}

	g.mu.Lock()
	g.lines = lines
	g.mu.Unlock()

	return g.Lines()
}

var errNoAmbientModel = errors.New("no ambient model configured")

func (g *AmbientGenerator) generate(ctx context.Context) (map[string]string, error) {
	if g.model == nil {
		return nil, errNoAmbientModel
	}

	var roles []core.RoleProfile
	if g.roles != nil {
		roles = g.roles.Roles()
	}

	if len(roles) == 0 {
		return nil, errors.New("no roles registered")
	}

	text, err := model.Complete(ctx, g.model, model.Request{
		Messages: []model.Message{
			{Role: "system", Text: ambientSystemPrompt},
			{Role: "user", Text: buildBatchPrompt(roles, sceneForHour(g.now().Hour()))},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ambient model call: %w", err)
	}

	return parseBatchLines(text, roles)
}

// buildBatchPrompt asks for the whole cast in one strict-JSON response,
// keeping ambient cost at one model call per refresh.
func buildBatchPrompt(roles []core.RoleProfile, scene string) string {
	descs := make([]string, 0, len(roles))
	keys := make([]string, 0, len(roles))

	for _, r := range roles {
		descs = append(descs, fmt.Sprintf("- %s(%s): 在%s%s,性格%s", r.Name, r.Title, r.Location, r.Activity, r.Personality))
		keys = append(keys, fmt.Sprintf("%q: \"...\"", r.Name))
	}

	var b strings.Builder

	fmt.Fprintf(&b, "请为办公室的%d个NPC生成当前的对话或行为描述。\n\n", len(roles))
	fmt.Fprintf(&b, "【场景】%s\n\n", scene)
	fmt.Fprintf(&b, "【NPC信息】\n%s\n\n", strings.Join(descs, "\n"))
	b.WriteString("【生成要求】\n")
	b.WriteString("1. 每个NPC生成1句话(20-40字)\n")
	b.WriteString("2. 内容要符合角色设定、当前活动和场景氛围\n")
	b.WriteString("3. 可以是自言自语、工作状态描述、或简单的思考\n")
	b.WriteString("4. 要自然真实,像真实的办公室同事\n")
	b.WriteString("5. 可以体现一些个性化特点和情绪\n")
	b.WriteString("6. **必须严格按照JSON格式返回**\n\n")
	fmt.Fprintf(&b, "【输出格式】(严格遵守)\n{%s}\n\n", strings.Join(keys, ", "))
	b.WriteString("【示例输出】\n")
	b.WriteString(`{"张三": "这个bug真是见鬼了,已经调试两小时了...", "李四": "嗯,这个功能的优先级需要重新评估一下。", "王五": "这杯咖啡的拉花真不错,灵感来了!"}`)
	b.WriteString("\n\n请生成(只返回JSON,不要其他内容):\n")

	return b.String()
}

// parseBatchLines decodes the model's JSON object. The strict pass requires
// a line for every role; the salvage pass (first '{' to last '}') accepts
// any JSON object so a partially usable response still refreshes the lines.
func parseBatchLines(text string, roles []core.RoleProfile) (map[string]string, error) {
	var lines map[string]string
	if err := json.Unmarshal([]byte(text), &lines); err == nil {
		for _, r := range roles {
			if _, ok := lines[r.Name]; !ok {
				return nil, fmt.Errorf("ambient response missing npc %q", r.Name)
			}
		}

		return lines, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start == -1 || end <= start {
		return nil, fmt.Errorf("ambient response is not JSON: %.100s", text)
	}

	lines = nil
	if err := json.Unmarshal([]byte(text[start:end+1]), &lines); err != nil {
		return nil, fmt.Errorf("salvage ambient response: %w", err)
	}

	return lines, nil
}

// sceneForHour derives the prompt's scene description from the clock.
func sceneForHour(hour int) string {
	switch {
	case hour >= 6 && hour < 9:
		return "清晨时分,大家陆续到达办公室,准备开始新的一天"
	case hour >= 9 && hour < 12:
		return "上午工作时间,大家都在专注工作,办公室氛围专注而忙碌"
	case hour >= 12 && hour < 14:
		return "午餐时间,大家在休息放松,聊聊天或者看看手机"
	case hour >= 14 && hour < 17:
		return "下午工作时间,继续推进项目,偶尔需要喝杯咖啡提神"
	case hour >= 17 && hour < 19:
		return "傍晚时分,准备收尾今天的工作,整理明天的计划"
	default:
		return "夜晚时分,办公室安静下来,偶尔还有人在加班"
	}
}

// periodForHour buckets the clock into the preset table's four periods.
func periodForHour(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 14:
		return "noon"
	case hour >= 14 && hour < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

// presetDialogues is the stand-in line table used whenever generation is
// unavailable. It only covers the built-in cast; custom NPCs get lines once
// a model refresh succeeds.
var presetDialogues = map[string]map[string]string{
	"morning": {
		"张三": "早上好!今天要继续优化那个多智能体系统的性能。",
		"李四": "新的一天开始了,先整理一下今天的会议安排。",
		"王五": "早!先来杯咖啡提提神,然后开始设计新界面。",
	},
	"noon": {
		"张三": "写了一上午代码,终于把那个bug修复了!",
		"李四": "上午的需求评审会很顺利,下午继续推进。",
		"王五": "这个配色方案看起来不错,再调整一下细节。",
	},
	"afternoon": {
		"张三": "下午继续写代码,这个算法还需要优化一下。",
		"李四": "正在准备下周的产品规划会,需求文档快完成了。",
		"王五": "设计稿基本完成了,等会儿发给大家看看。",
	},
	"evening": {
		"张三": "今天的代码提交完成,明天继续!",
		"李四": "今天的工作差不多了,整理一下明天的待办事项。",
		"王五": "设计工作告一段落,明天再继续优化。",
	},
}

func presetLines(hour int) map[string]string {
	preset := presetDialogues[periodForHour(hour)]

	out := make(map[string]string, len(preset))
	for name, line := range preset {
		out[name] = line
	}

	return out
}
