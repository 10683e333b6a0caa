package blocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Pipeflow/internal/domain"
	"github.com/shaiso/Pipeflow/internal/prefect"
	"github.com/shaiso/Pipeflow/internal/repo"
	"github.com/shaiso/Pipeflow/internal/telemetry"
)

// Engine — документы блоков в движке.
type Engine interface {
	FindBlockDocument(ctx context.Context, blockType domain.BlockType, name string) (*prefect.BlockDocument, error)
	GetBlockDocument(ctx context.Context, id uuid.UUID) (*prefect.BlockDocument, error)
	CreateBlockDocument(ctx context.Context, blockType domain.BlockType, name string, data map[string]any) (*prefect.BlockDocument, error)
	DeleteBlockDocument(ctx context.Context, id uuid.UUID) error
}

// Store — регистрации блоков за организациями.
// GetByBlockID возвращает repo.ErrNotFound, если блок не принадлежит организации.
type Store interface {
	GetByBlockID(ctx context.Context, orgID uuid.UUID, blockID string) (*domain.Block, error)
	Create(ctx context.Context, block *domain.Block) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AirbyteServerSpec — параметры блока Airbyte server.
type AirbyteServerSpec struct {
	BlockName  string `json:"block_name"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	APIVersion string `json:"api_version"`
}

// AirbyteConnectionSpec — параметры блока Airbyte connection.
type AirbyteConnectionSpec struct {
	BlockName       string `json:"block_name"`
	ServerBlockName string `json:"server_block_name"`
	ConnectionID    string `json:"connection_id"`
}

// ShellSpec — параметры блока shell-операции.
type ShellSpec struct {
	BlockName  string            `json:"block_name"`
	Commands   []string          `json:"commands"`
	Env        map[string]string `json:"env"`
	WorkingDir string            `json:"working_dir"`
}

const defaultAirbyteAPIVersion = "v1"

// Manager создаёт, показывает и удаляет блоки организаций.
type Manager struct {
	engine Engine
	store  Store
	logger *slog.Logger
}

// Config — конфигурация Manager.
type Config struct {
	Engine Engine
	Store  Store
	Logger *slog.Logger
}

// NewManager создаёт новый Manager.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		engine: cfg.Engine,
		store:  cfg.Store,
		logger: logger,
	}
}

// CreateAirbyteServer создаёт блок Airbyte server.
func (m *Manager) CreateAirbyteServer(ctx context.Context, org *domain.Org, spec AirbyteServerSpec) (*domain.Block, error) {
	if spec.BlockName == "" || spec.Host == "" || spec.Port <= 0 {
		return nil, fmt.Errorf("%w: block_name, host and port are required", ErrInvalidBlock)
	}
	if spec.APIVersion == "" {
		spec.APIVersion = defaultAirbyteAPIVersion
	}

	data := map[string]any{
		"server_host": spec.Host,
		"server_port": spec.Port,
		"api_version": spec.APIVersion,
	}
	return m.create(ctx, org, domain.BlockTypeAirbyteServer, spec.BlockName, data)
}

// CreateAirbyteConnection создаёт блок Airbyte connection, ссылающийся на
// существующий блок Airbyte server.
func (m *Manager) CreateAirbyteConnection(ctx context.Context, org *domain.Org, spec AirbyteConnectionSpec) (*domain.Block, error) {
	if spec.BlockName == "" || spec.ServerBlockName == "" || spec.ConnectionID == "" {
		return nil, fmt.Errorf("%w: block_name, server_block_name and connection_id are required", ErrInvalidBlock)
	}

	server, err := m.engine.FindBlockDocument(ctx, domain.BlockTypeAirbyteServer, spec.ServerBlockName)
	if err != nil {
		return nil, fmt.Errorf("find airbyte server block: %w", err)
	}
	if server == nil {
		return nil, fmt.Errorf("%w: %q", ErrServerBlockNotFound, spec.ServerBlockName)
	}

	data := map[string]any{
		"airbyte_server": prefect.BlockRef(server.ID),
		"connection_id":  spec.ConnectionID,
	}
	return m.create(ctx, org, domain.BlockTypeAirbyteConnection, spec.BlockName, data)
}

// CreateShell создаёт блок shell-операции.
func (m *Manager) CreateShell(ctx context.Context, org *domain.Org, spec ShellSpec) (*domain.Block, error) {
	if spec.BlockName == "" || len(spec.Commands) == 0 {
		return nil, fmt.Errorf("%w: block_name and commands are required", ErrInvalidBlock)
	}

	env := spec.Env
	if env == nil {
		env = map[string]string{}
	}

	data := map[string]any{
		"commands":    spec.Commands,
		"env":         env,
		"working_dir": spec.WorkingDir,
	}
	return m.create(ctx, org, domain.BlockTypeShellOperation, spec.BlockName, data)
}

// Get возвращает документ блока организации из движка.
// repo.ErrNotFound — блок не зарегистрирован за организацией или пропал из движка.
func (m *Manager) Get(ctx context.Context, org *domain.Org, blockID uuid.UUID) (*prefect.BlockDocument, error) {
	if _, err := m.store.GetByBlockID(ctx, org.ID, blockID.String()); err != nil {
		return nil, err
	}

	doc, err := m.engine.GetBlockDocument(ctx, blockID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: block document %s", repo.ErrNotFound, blockID)
	}
	return doc, nil
}

// Delete удаляет документ блока в движке и его регистрацию.
// Документ, которого уже нет в движке, не мешает удалить регистрацию.
func (m *Manager) Delete(ctx context.Context, org *domain.Org, blockID uuid.UUID) error {
	block, err := m.store.GetByBlockID(ctx, org.ID, blockID.String())
	if err != nil {
		return err
	}

	if err := m.engine.DeleteBlockDocument(ctx, blockID); err != nil && !prefect.IsNotFound(err) {
		return fmt.Errorf("delete block document: %w", err)
	}

	if err := m.store.Delete(ctx, block.ID); err != nil {
		return err
	}

	telemetry.BlockOperations.WithLabelValues(string(block.BlockType), "delete").Inc()
	m.logger.Info("block deleted",
		"org", org.Slug,
		"block_type", block.BlockType,
		"block_name", block.BlockName,
		"block_id", block.BlockID,
	)
	return nil
}

// create сохраняет документ в движке и регистрирует его за организацией.
func (m *Manager) create(ctx context.Context, org *domain.Org, blockType domain.BlockType, name string, data map[string]any) (*domain.Block, error) {
	existing, err := m.engine.FindBlockDocument(ctx, blockType, name)
	if err != nil {
		return nil, fmt.Errorf("find block document: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s %q", ErrBlockExists, blockType, name)
	}

	doc, err := m.engine.CreateBlockDocument(ctx, blockType, name, data)
	if err != nil {
		return nil, fmt.Errorf("create block document: %w", err)
	}

	block := &domain.Block{
		OrgID:     org.ID,
		BlockType: blockType,
		BlockID:   doc.ID.String(),
		BlockName: name,
	}
	if err := m.store.Create(ctx, block); err != nil {
		if delErr := m.engine.DeleteBlockDocument(ctx, doc.ID); delErr != nil {
			m.logger.Error("failed to roll back block document",
				"block_id", doc.ID,
				"error", delErr,
			)
			return nil, errors.Join(err, delErr)
		}
		return nil, err
	}

	telemetry.BlockOperations.WithLabelValues(string(blockType), "create").Inc()
	m.logger.Info("block created",
		"org", org.Slug,
		"block_type", blockType,
		"block_name", name,
		"block_id", block.BlockID,
	)
	return block, nil
}
