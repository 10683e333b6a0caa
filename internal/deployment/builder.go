package deployment

import (
	"strings"

	"github.com/shaiso/Pipeflow/internal/domain"
	"github.com/shaiso/Pipeflow/internal/prefect"
)

// WorkQueue — очередь движка, из которой агенты берут runs.
const WorkQueue = "ddp"

// Builder строит запрос на создание deployment.
type Builder struct{}

// FlowName возвращает имя flow организации.
func (Builder) FlowName(org *domain.Org) string {
	return "pipeline-" + org.Slug
}

// DeploymentName возвращает имя deployment dataflow.
// Уже сохранённое имя не меняется.
func (Builder) DeploymentName(org *domain.Org, df *domain.Dataflow) string {
	if df.DeploymentName != "" {
		return df.DeploymentName
	}
	return org.Slug + "-" + slugify(df.Name)
}

// Build возвращает тело запроса без FlowID: его проставляет Deployer.
func (b Builder) Build(org *domain.Org, df *domain.Dataflow, pipeline *domain.Pipeline, cron string) (prefect.DeploymentCreate, error) {
	if err := ValidateCron(cron); err != nil {
		return prefect.DeploymentCreate{}, err
	}
	if pipeline == nil || len(pipeline.Tasks) == 0 {
		return prefect.DeploymentCreate{}, ErrEmptyPipeline
	}

	payload := prefect.DeploymentCreate{
		Name:          b.DeploymentName(org, df),
		WorkQueueName: WorkQueue,
		Tags:          []string{org.Slug},
		Parameters: map[string]any{
			"config": map[string]any{
				"org_slug": org.Slug,
				"tasks":    pipeline.Tasks,
			},
		},
	}

	if cron != "" {
		payload.Schedule = &prefect.CronSchedule{Cron: cron}
		payload.IsScheduleActive = true
	}

	return payload, nil
}

// slugify приводит имя к виду "lower-case-with-dashes".
func slugify(name string) string {
	var sb strings.Builder
	dash := false

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			dash = false
		case !dash && sb.Len() > 0:
			sb.WriteByte('-')
			dash = true
		}
	}

	return strings.TrimSuffix(sb.String(), "-")
}
