package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// DescriptorType — тип операции движка, который исполнит задачу.
type DescriptorType string

const (
	DescriptorAirbyteConnection DescriptorType = "Airbyte Connection"
	DescriptorShellOperation    DescriptorType = "Shell Operation"
	DescriptorDbtCoreOperation  DescriptorType = "dbt Core Operation"
)

// GitPullSecretEnvKey — слот в env shell-операции для secret-блока с URL репозитория.
const GitPullSecretEnvKey = "secret-git-pull-url-block"

// TaskDescriptor — нормализованная конфигурация задачи для движка.
//
// Value object: создаётся заново при каждой сборке и не меняется после.
// Заполнена ровно одна из секций Sync, Shell, Dbt — по Type.
type TaskDescriptor struct {
	// Seq — номер в pipeline.
	Seq int

	// Slug — slug исходной задачи.
	Slug string

	// Type — тип операции движка.
	Type DescriptorType

	// OrgTaskID — ссылка на исходную OrgTask.
	OrgTaskID uuid.UUID

	Sync  *SyncConfig
	Shell *ShellConfig
	Dbt   *DbtConfig
}

// SyncConfig — параметры синхронизации Airbyte.
type SyncConfig struct {
	ServerBlock  string `json:"airbyte_server_block"`
	ConnectionID string `json:"connection_id"`
	Timeout      int    `json:"timeout"`
}

// ShellConfig — параметры shell-операции.
type ShellConfig struct {
	Commands   []string          `json:"commands"`
	WorkingDir string            `json:"working_dir"`
	Env        map[string]string `json:"env"`
}

// DbtConfig — параметры dbt-операции.
type DbtConfig struct {
	Commands        []string          `json:"commands"`
	Env             map[string]string `json:"env"`
	WorkingDir      string            `json:"working_dir"`
	ProfilesDir     string            `json:"profiles_dir"`
	ProjectDir      string            `json:"project_dir"`
	CLIProfileBlock string            `json:"cli_profile_block"`
	CLIArgs         []string          `json:"cli_args"`
}

// descriptorHeader — общие поля payload.
type descriptorHeader struct {
	Seq       int            `json:"seq"`
	Slug      string         `json:"slug"`
	Type      DescriptorType `json:"type"`
	OrgTaskID string         `json:"orgtask_uuid"`
}

// MarshalJSON сериализует дескриптор в плоский payload, который ожидает flow в движке.
func (d TaskDescriptor) MarshalJSON() ([]byte, error) {
	header := descriptorHeader{
		Seq:       d.Seq,
		Slug:      d.Slug,
		Type:      d.Type,
		OrgTaskID: d.OrgTaskID.String(),
	}

	switch {
	case d.Sync != nil:
		return json.Marshal(struct {
			descriptorHeader
			*SyncConfig
		}{header, d.Sync})
	case d.Shell != nil:
		return json.Marshal(struct {
			descriptorHeader
			*ShellConfig
		}{header, d.Shell})
	case d.Dbt != nil:
		return json.Marshal(struct {
			descriptorHeader
			*DbtConfig
		}{header, d.Dbt})
	default:
		return json.Marshal(header)
	}
}

// SkippedTask — задача, для которой сборка не построила дескриптор.
type SkippedTask struct {
	OrgTaskID uuid.UUID `json:"orgtask_uuid"`
	Slug      string    `json:"slug"`
	Reason    string    `json:"reason"`
}

// Pipeline — упорядоченный список дескрипторов с общим контекстом выполнения.
//
// Инвариант: Tasks[i].Seq == StartSeq + i.
type Pipeline struct {
	StartSeq int              `json:"start_seq"`
	Tasks    []TaskDescriptor `json:"tasks"`
	Skipped  []SkippedTask    `json:"skipped,omitempty"`
}

// NextSeq возвращает номер, с которого продолжится следующий pipeline.
func (p *Pipeline) NextSeq() int {
	return p.StartSeq + len(p.Tasks)
}
