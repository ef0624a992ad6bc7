package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alpinecapital/crewmesh/agent"
	"github.com/alpinecapital/crewmesh/core"
	"github.com/alpinecapital/crewmesh/crew"
	"github.com/alpinecapital/crewmesh/events"
	"github.com/alpinecapital/crewmesh/logging"
	"github.com/alpinecapital/crewmesh/task"
)

const tracerName = "github.com/alpinecapital/crewmesh/runner"

// Options holds dependency overrides passed to New().
type Options struct {
	// Logging services.
	Logger logging.Logger
	// Sink receives lifecycle events.
	Sink events.Sink
	// Tracer creates the crew.run and task spans. Defaults to the global provider.
	Tracer trace.Tracer
}

// Runner executes crews. A Runner keeps no state between runs, so one value
// can serve any number of crews concurrently.
type Runner struct {
	logger logging.Logger
	sink   events.Sink
	tracer trace.Tracer
}

// New constructs a Runner with optional overrides.
func New(optFns ...func(o *Options)) *Runner {
	opts := Options{
		Logger: logging.NoOpLogger{},
		Sink:   events.Discard{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}

	return &Runner{
		logger: logging.OrNoOp(opts.Logger),
		sink:   opts.Sink,
		tracer: opts.Tracer,
	}
}

// Result is the outcome of one pipeline pass.
type Result struct {
	RunID  string
	Crew   string
	Status core.Status
	// Output is the raw output of the final task.
	Output string
	// Tasks holds the output of every completed task in execution order.
	Tasks    []task.Output
	Duration time.Duration
}

// TrainResult is the outcome of a training session.
type TrainResult struct {
	Iterations int
	Runs       []*Result
}

// Run executes every task of c once, strictly in order. All task templates
// are bound before the first task starts, so missing inputs fail without any
// agent work. On failure the partial result is returned along with the
// task's error.
func (r *Runner) Run(ctx context.Context, c *crew.Crew, inputs core.Inputs) (*Result, error) {
	return r.run(ctx, c, inputs, 0)
}

// Train runs the full pipeline n times sequentially with the same inputs.
// A failure in iteration k is returned as a *core.PipelineError and the
// remaining iterations are skipped.
func (r *Runner) Train(ctx context.Context, c *crew.Crew, n int, inputs core.Inputs) (*TrainResult, error) {
	if n < 1 {
		return nil, core.NewInputError("n_iterations", fmt.Sprintf("must be at least 1, got %d", n))
	}

	res := &TrainResult{Iterations: n}
	for k := 1; k <= n; k++ {
		r.logger.Info("runner.train.iteration", "crew", c.Name(), "iteration", k, "iterations", n)

		run, err := r.run(ctx, c, inputs, k)
		if run != nil {
			res.Runs = append(res.Runs, run)
			ev := core.NewEvent(core.EventTrainIteration, run.RunID, c.Name())
			ev.Iteration = k
			if err != nil {
				ev.Error = err.Error()
			}
			r.publish(ctx, ev)
		}
		if err != nil {
			return res, &core.PipelineError{Iteration: k, Iterations: n, Err: err}
		}
	}
	return res, nil
}

type boundTask struct {
	task      *task.Task
	coworkers agent.Directory
}

func (r *Runner) bind(c *crew.Crew, inputs core.Inputs) ([]boundTask, error) {
	defs := c.Tasks()

	templates := make([]*task.Template, 0, 2*len(defs))
	for _, d := range defs {
		templates = append(templates, d.Description, d.ExpectedOutput)
	}
	if missing := task.MissingInputs(inputs, templates...); len(missing) > 0 {
		return nil, &core.InputError{
			Field:  c.Name(),
			Reason: "missing required parameters: " + strings.Join(missing, ", "),
			Err:    core.ErrMissingInput,
		}
	}

	bound := make([]boundTask, 0, len(defs))
	for _, d := range defs {
		invoker, coworkers, err := c.Assignee(d)
		if err != nil {
			return nil, err
		}
		t, err := d.Bind(invoker, inputs)
		if err != nil {
			return nil, err
		}
		bound = append(bound, boundTask{task: t, coworkers: coworkers})
	}
	return bound, nil
}

func (r *Runner) run(ctx context.Context, c *crew.Crew, inputs core.Inputs, iteration int) (*Result, error) {
	bound, err := r.bind(c, inputs)
	if err != nil {
		return nil, err
	}

	state := newRunState(core.NewID(), c.Name())
	res := &Result{RunID: state.id, Crew: c.Name(), Status: state.status}

	ctx, span := r.tracer.Start(ctx, "crew.run", trace.WithAttributes(
		attribute.String("crew.name", c.Name()),
		attribute.String("crew.process", string(c.Process())),
		attribute.String("run.id", state.id),
		attribute.Int("run.tasks", len(bound)),
		attribute.Int("train.iteration", iteration),
	))
	defer span.End()

	start := time.Now()
	if err := r.transition(ctx, state, core.StatusRunning, core.NewEvent(core.EventRunStarted, state.id, c.Name())); err != nil {
		return nil, err
	}
	r.logger.Info("runner.run.start", "run_id", state.id, "crew", c.Name(), "tasks", len(bound), "iteration", iteration)

	fail := func(taskName string, err error) (*Result, error) {
		ev := core.NewEvent(core.EventRunFailed, state.id, c.Name())
		ev.Task = taskName
		ev.Error = err.Error()
		_ = r.transition(ctx, state, core.StatusFailed, ev)

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("runner.run.failed", "run_id", state.id, "crew", c.Name(), "task", taskName, "error", err.Error())

		res.Status = state.status
		res.Duration = time.Since(start)
		return res, err
	}

	outputs := make(map[string]task.Output, len(bound))
	var previous *task.Output
	for _, b := range bound {
		if err := ctx.Err(); err != nil {
			return fail(b.task.Name, err)
		}

		out, err := r.executeTask(ctx, state, b, contextFor(b.task, outputs, previous))
		if err != nil {
			return fail(b.task.Name, err)
		}
		outputs[out.Task] = out
		res.Tasks = append(res.Tasks, out)
		previous = &res.Tasks[len(res.Tasks)-1]
	}

	if previous != nil {
		res.Output = previous.Raw
	}
	done := core.NewEvent(core.EventRunCompleted, state.id, c.Name())
	done.Output = res.Output
	if err := r.transition(ctx, state, core.StatusCompleted, done); err != nil {
		return fail("", err)
	}
	span.SetStatus(codes.Ok, "")

	res.Status = state.status
	res.Duration = time.Since(start)
	r.logger.Info("runner.run.complete", "run_id", state.id, "crew", c.Name(), "duration", res.Duration)
	return res, nil
}

func (r *Runner) executeTask(ctx context.Context, state *runState, b boundTask, priorOutputs string) (task.Output, error) {
	t := b.task
	agentRole := t.Agent.Role()

	ctx, span := r.tracer.Start(ctx, "task."+t.Name, trace.WithAttributes(
		attribute.String("task.name", t.Name),
		attribute.String("task.agent", agentRole),
		attribute.Int("task.coworkers", b.coworkers.Len()),
	))
	defer span.End()

	started := core.NewEvent(core.EventTaskStarted, state.id, state.crew)
	started.Task = t.Name
	started.Agent = agentRole
	r.publish(ctx, started)
	r.logger.Debug("runner.task.start", "run_id", state.id, "task", t.Name, "agent", agentRole)

	logger := logging.ForRun(r.logger, state.id)
	start := time.Now()
	out, err := t.Execute(ctx, priorOutputs, b.coworkers)
	logging.TaskExecution(logger, t.Name, agentRole, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		failed := core.NewEvent(core.EventTaskFailed, state.id, state.crew)
		failed.Task = t.Name
		failed.Agent = agentRole
		failed.Error = err.Error()
		r.publish(ctx, failed)
		return task.Output{}, err
	}

	completed := core.NewEvent(core.EventTaskCompleted, state.id, state.crew)
	completed.Task = t.Name
	completed.Agent = agentRole
	completed.Output = out.Summary
	r.publish(ctx, completed)
	logger.Debug("runner.task.complete", "task", t.Name, "summary", out.Summary)
	return out, nil
}

// contextFor assembles the prior outputs a task sees: the tasks it names, or
// the immediately preceding output when it names none.
func contextFor(t *task.Task, outputs map[string]task.Output, previous *task.Output) string {
	if len(t.Context) == 0 {
		if previous == nil {
			return ""
		}
		return previous.Raw
	}
	parts := make([]string, 0, len(t.Context))
	for _, name := range t.Context {
		if out, ok := outputs[name]; ok {
			parts = append(parts, out.Raw)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (r *Runner) transition(ctx context.Context, state *runState, next core.Status, ev core.Event) error {
	if err := state.moveTo(next); err != nil {
		return err
	}
	r.publish(ctx, ev)
	return nil
}

func (r *Runner) publish(ctx context.Context, ev core.Event) {
	// a cancelled run still reports how it ended
	if err := r.sink.Publish(context.WithoutCancel(ctx), ev); err != nil {
		r.logger.Warn("runner.event.publish_failed", "event_id", ev.ID, "type", string(ev.Type), "error", err.Error())
	}
}
