package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Pipeflow/internal/domain"
)

// BlockRepo — блоки движка, зарегистрированные за организациями.
type BlockRepo struct {
	pool *pgxpool.Pool
}

// NewBlockRepo создаёт новый BlockRepo.
func NewBlockRepo(pool *pgxpool.Pool) *BlockRepo {
	return &BlockRepo{pool: pool}
}

// FindFirst возвращает первый блок организации заданного типа,
// имя которого содержит nameContains (с учётом регистра, % и _ — обычные символы).
// Пустой nameContains подходит под любое имя.
func (r *BlockRepo) FindFirst(ctx context.Context, orgID uuid.UUID, blockType domain.BlockType, nameContains string) (*domain.Block, error) {
	query := `
		SELECT id, org_id, block_type, block_id, block_name
		FROM org_blocks
		WHERE org_id = $1 AND block_type = $2 AND block_name LIKE $3 ESCAPE '\'
		ORDER BY block_name
		LIMIT 1
	`
	return r.scanBlock(r.pool.QueryRow(ctx, query, orgID, string(blockType), containsPattern(nameContains)))
}

// GetByBlockID возвращает блок организации по ID документа в движке.
func (r *BlockRepo) GetByBlockID(ctx context.Context, orgID uuid.UUID, blockID string) (*domain.Block, error) {
	query := `
		SELECT id, org_id, block_type, block_id, block_name
		FROM org_blocks
		WHERE org_id = $1 AND block_id = $2
	`
	return r.scanBlock(r.pool.QueryRow(ctx, query, orgID, blockID))
}

// Create регистрирует блок за организацией.
func (r *BlockRepo) Create(ctx context.Context, block *domain.Block) error {
	if block.ID == uuid.Nil {
		block.ID = uuid.New()
	}

	query := `
		INSERT INTO org_blocks (id, org_id, block_type, block_id, block_name)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, block.ID, block.OrgID, string(block.BlockType), block.BlockID, block.BlockName)
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

// Delete удаляет регистрацию блока.
func (r *BlockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM org_blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern строит LIKE-шаблон "содержит s" с экранированием спецсимволов.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// FindByType возвращает блок организации заданного типа.
func (r *BlockRepo) FindByType(ctx context.Context, orgID uuid.UUID, blockType domain.BlockType) (*domain.Block, error) {
	return r.FindFirst(ctx, orgID, blockType, "")
}

func (r *BlockRepo) scanBlock(row pgx.Row) (*domain.Block, error) {
	var (
		block     domain.Block
		blockType string
	)
	err := row.Scan(
		&block.ID,
		&block.OrgID,
		&blockType,
		&block.BlockID,
		&block.BlockName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan block: %w", err)
	}

	block.BlockType = domain.BlockType(blockType)
	return &block, nil
}
