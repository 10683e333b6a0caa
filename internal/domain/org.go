package domain

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Org — организация, владеющая задачами и dataflow.
type Org struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`

	// Slug — короткое имя, используется как тег deployment в движке.
	Slug string `json:"slug"`
}

// Dataflow — pipeline организации и его deployment в движке.
type Dataflow struct {
	ID    uuid.UUID `json:"id"`
	OrgID uuid.UUID `json:"org_id"`
	Name  string    `json:"name"`

	// DeploymentName и DeploymentID — представление в движке.
	// Пустые, пока dataflow не задеплоен.
	DeploymentName string `json:"deployment_name,omitempty"`
	DeploymentID   string `json:"deployment_id,omitempty"`

	// Cron — расписание. Пустое для ручных dataflow.
	Cron string `json:"cron,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// BlockType — тип блока движка.
type BlockType string

const (
	BlockTypeAirbyteServer     BlockType = "Airbyte Server"
	BlockTypeAirbyteConnection BlockType = "Airbyte Connection"
	BlockTypeShellOperation    BlockType = "Shell Operation"
	BlockTypeDBTCoreOperation  BlockType = "dbt Core Operation"
	BlockTypeDBTCLIProfile     BlockType = "dbt CLI Profile"
	BlockTypeSecret            BlockType = "Secret"
)

// Block — именованный объект конфигурации движка, зарегистрированный за организацией.
type Block struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"org_id"`
	BlockType BlockType `json:"block_type"`
	BlockID   string    `json:"block_id"`
	BlockName string    `json:"block_name"`
}

// TransformContext — параметры dbt-проекта организации.
type TransformContext struct {
	// DbtBinary — путь к исполняемому файлу dbt.
	DbtBinary string `json:"dbt_binary"`

	// ProjectDir — директория dbt-проекта, она же рабочая директория.
	ProjectDir string `json:"project_dir"`

	// Target — имя target в profiles.yml.
	Target string `json:"target"`

	// GitRepoURL — репозиторий проекта. Пустой, если проект не в git.
	GitRepoURL string `json:"git_repo_url,omitempty"`
}

// ProfilesDir возвращает директорию profiles внутри проекта.
func (c *TransformContext) ProfilesDir() string {
	return c.ProjectDir + "/profiles/"
}

// stringify приводит значение опции к строке для командной строки.
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
