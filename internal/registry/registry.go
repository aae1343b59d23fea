// Package registry holds the static catalog of winbridge tools and routes
// incoming tool calls to their action handlers.
//
// A Tool is a named capability group (filesystem, process, network, ...)
// containing a closed set of Actions. Each Action declares its parameter
// contract and the handler implementing it. The catalog is fixed at process
// start and never mutated afterwards.
package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/winbridge/winbridge/internal/telemetry"
	"go.uber.org/zap"
)

// ParamType is the JSON schema type of a tool parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
)

// HandlerFunc implements one action. It returns the report text for the
// response payload, or an error that the dispatcher converts into a failure
// response.
type HandlerFunc func(ctx context.Context, args Args) (string, error)

// Param describes one parameter of an action.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	// Enum restricts a string parameter to a fixed set of values.
	Enum []string
	// Default is applied when the parameter is absent from the request.
	Default any
}

// Action is a single named operation within a tool.
type Action struct {
	Name        string
	Description string
	Params      []Param
	Handler     HandlerFunc
}

// Tool is a named capability group advertised to the calling client.
type Tool struct {
	Name        string
	Description string
	// ReadOnly marks tools whose actions never mutate system state.
	ReadOnly bool
	Actions  []Action
}

// MissingParameterError reports that an action was invoked without a
// parameter (or any of a set of alternative parameters) it cannot work
// without.
type MissingParameterError struct {
	Action string
	Params []string
}

func (e *MissingParameterError) Error() string {
	if len(e.Params) == 1 {
		return fmt.Sprintf("missing required parameter %q for action %q", e.Params[0], e.Action)
	}
	return fmt.Sprintf("action %q requires one of: %s", e.Action, strings.Join(e.Params, ", "))
}

// NewMissingParameterError is used by handlers that accept alternative
// identifying parameters (e.g. a process by pid or by name) when none of
// them was supplied.
func NewMissingParameterError(action string, params ...string) error {
	return &MissingParameterError{Action: action, Params: params}
}

// Registry is the fixed tool catalog plus the dispatcher over it.
type Registry struct {
	logger  *zap.Logger
	metrics telemetry.CustomMetrics

	tools map[string]*Tool
	order []string
}

// New creates an empty registry.
func New(logger *zap.Logger, metrics telemetry.CustomMetrics) *Registry {
	return &Registry{
		logger:  logger,
		metrics: metrics,
		tools:   make(map[string]*Tool),
	}
}

// Register adds a tool to the catalog. Tool names must be unique and every
// tool must declare at least one action with a handler.
func (r *Registry) Register(t *Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %q is already registered", t.Name)
	}
	if len(t.Actions) == 0 {
		return fmt.Errorf("tool %q declares no actions", t.Name)
	}
	seen := make(map[string]bool, len(t.Actions))
	for _, a := range t.Actions {
		if a.Handler == nil {
			return fmt.Errorf("action %q of tool %q has no handler", a.Name, t.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("action %q of tool %q is declared twice", a.Name, t.Name)
		}
		seen[a.Name] = true
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []*Tool {
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Dispatch routes a (tool, action, parameters) triple to the matching
// handler. Unknown tool or action, and missing required parameters, are
// terminal errors for this request only; no external command is built for
// them. Defaults are applied before the handler runs.
func (r *Registry) Dispatch(ctx context.Context, toolName, action string, args Args) (report string, err error) {
	started := time.Now()
	outcome := telemetry.ToolCallOutcomeError
	defer func() {
		r.metrics.RecordToolCall(ctx, toolName, action, outcome, time.Since(started))
	}()

	t, ok := r.tools[toolName]
	if !ok {
		return "", fmt.Errorf("unknown tool: %q", toolName)
	}

	var act *Action
	for i := range t.Actions {
		if t.Actions[i].Name == action {
			act = &t.Actions[i]
			break
		}
	}
	if act == nil {
		return "", fmt.Errorf("unknown action %q for tool %q", action, toolName)
	}

	merged, err := validateParams(act, args)
	if err != nil {
		return "", err
	}

	r.logger.Debug("dispatching tool call",
		zap.String("tool", toolName),
		zap.String("action", action),
	)

	report, err = act.Handler(ctx, merged)
	if err != nil {
		r.logger.Warn("tool call failed",
			zap.String("tool", toolName),
			zap.String("action", action),
			zap.Error(err),
		)
		return "", err
	}

	outcome = telemetry.ToolCallOutcomeSuccess
	return report, nil
}

// validateParams checks required parameters and enum membership, then
// returns a copy of args with declared defaults filled in.
func validateParams(act *Action, args Args) (Args, error) {
	merged := make(Args, len(args)+len(act.Params))
	for k, v := range args {
		merged[k] = v
	}
	for _, p := range act.Params {
		if !merged.Has(p.Name) {
			if p.Required {
				return nil, &MissingParameterError{Action: act.Name, Params: []string{p.Name}}
			}
			if p.Default != nil {
				merged[p.Name] = p.Default
			}
			continue
		}
		if len(p.Enum) > 0 {
			v := merged.String(p.Name, "")
			valid := false
			for _, allowed := range p.Enum {
				if v == allowed {
					valid = true
					break
				}
			}
			if !valid {
				return nil, fmt.Errorf(
					"invalid value %q for parameter %q of action %q, valid values are: %s",
					v, p.Name, act.Name, strings.Join(p.Enum, ", "),
				)
			}
		}
	}
	return merged, nil
}

// Attach advertises every registered tool on the MCP server. The advertised
// input schema declares the action enum plus the union of all per-action
// parameters; requiredness of individual parameters is enforced per action
// at dispatch time.
func (r *Registry) Attach(s *server.MCPServer) {
	for _, t := range r.Tools() {
		s.AddTool(r.buildMcpTool(t), r.handlerFor(t.Name))
	}
}

// buildMcpTool converts a catalog entry into the mcp.Tool advertised to
// clients.
func (r *Registry) buildMcpTool(t *Tool) mcp.Tool {
	actionNames := make([]string, 0, len(t.Actions))
	descriptions := make([]string, 0, len(t.Actions))
	for _, a := range t.Actions {
		actionNames = append(actionNames, a.Name)
		descriptions = append(descriptions, fmt.Sprintf("'%s': %s", a.Name, a.Description))
	}

	opts := []mcp.ToolOption{
		mcp.WithDescription(t.Description),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint:    mcp.ToBoolPtr(t.ReadOnly),
			DestructiveHint: mcp.ToBoolPtr(!t.ReadOnly),
			OpenWorldHint:   mcp.ToBoolPtr(false),
		}),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("The operation to perform. "+strings.Join(descriptions, " ")),
			mcp.Enum(actionNames...),
		),
	}

	// Union of the per-action parameters, first declaration wins.
	seen := map[string]bool{"action": true}
	for _, a := range t.Actions {
		for _, p := range a.Params {
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			opts = append(opts, paramOption(p))
		}
	}

	return mcp.NewTool(t.Name, opts...)
}

func paramOption(p Param) mcp.ToolOption {
	switch p.Type {
	case ParamNumber:
		return mcp.WithNumber(p.Name, mcp.Description(p.Description))
	case ParamBoolean:
		return mcp.WithBoolean(p.Name, mcp.Description(p.Description))
	default:
		var propOpts []mcp.PropertyOption
		propOpts = append(propOpts, mcp.Description(p.Description))
		if len(p.Enum) > 0 {
			propOpts = append(propOpts, mcp.Enum(p.Enum...))
		}
		return mcp.WithString(p.Name, propOpts...)
	}
}

// handlerFor wraps Dispatch into an mcp-go tool handler. This is the single
// place where a handler failure is converted into a failure response; the
// error message is prefixed for visual scanning and the MCP isError flag is
// set, so clients can branch on success without parsing prose.
func (r *Registry) handlerFor(toolName string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := Args(req.GetArguments())
		action := args.String("action", "")

		report, err := r.Dispatch(ctx, toolName, action, args)
		if err != nil {
			return mcp.NewToolResultError("Error: " + err.Error()), nil
		}
		return mcp.NewToolResultText(report), nil
	}
}
