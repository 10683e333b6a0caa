package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Pipeflow/internal/domain"
)

// OrgRepo — организации, их dataflow и dbt-проекты.
type OrgRepo struct {
	pool *pgxpool.Pool
}

// NewOrgRepo создаёт новый OrgRepo.
func NewOrgRepo(pool *pgxpool.Pool) *OrgRepo {
	return &OrgRepo{pool: pool}
}

// GetBySlug возвращает организацию по slug.
func (r *OrgRepo) GetBySlug(ctx context.Context, slug string) (*domain.Org, error) {
	query := `
		SELECT id, name, slug
		FROM orgs
		WHERE slug = $1
	`
	var org domain.Org
	err := r.pool.QueryRow(ctx, query, slug).Scan(&org.ID, &org.Name, &org.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get org by slug: %w", err)
	}
	return &org, nil
}

// GetDataflow возвращает dataflow организации.
func (r *OrgRepo) GetDataflow(ctx context.Context, orgID, dataflowID uuid.UUID) (*domain.Dataflow, error) {
	query := `
		SELECT id, org_id, name, deployment_name, deployment_id, cron, created_at
		FROM org_dataflows
		WHERE id = $1 AND org_id = $2
	`
	var (
		df             domain.Dataflow
		deploymentName *string
		deploymentID   *string
		cron           *string
	)
	err := r.pool.QueryRow(ctx, query, dataflowID, orgID).Scan(
		&df.ID,
		&df.OrgID,
		&df.Name,
		&deploymentName,
		&deploymentID,
		&cron,
		&df.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get dataflow: %w", err)
	}

	df.DeploymentName = derefString(deploymentName)
	df.DeploymentID = derefString(deploymentID)
	df.Cron = derefString(cron)
	return &df, nil
}

// SetDeployment сохраняет deployment, созданный для dataflow в движке.
func (r *OrgRepo) SetDeployment(ctx context.Context, dataflowID uuid.UUID, name, deploymentID, cron string) error {
	query := `
		UPDATE org_dataflows
		SET deployment_name = $2, deployment_id = $3, cron = $4
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, dataflowID, name, deploymentID, nullString(cron))
	if err != nil {
		return fmt.Errorf("update dataflow deployment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTransformContext возвращает dbt-проект организации.
func (r *OrgRepo) GetTransformContext(ctx context.Context, orgID uuid.UUID) (*domain.TransformContext, error) {
	query := `
		SELECT dbt_binary, project_dir, target, git_repo_url
		FROM org_dbt
		WHERE org_id = $1
	`
	var (
		tc      domain.TransformContext
		gitRepo *string
	)
	err := r.pool.QueryRow(ctx, query, orgID).Scan(
		&tc.DbtBinary,
		&tc.ProjectDir,
		&tc.Target,
		&gitRepo,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transform context: %w", err)
	}

	tc.GitRepoURL = derefString(gitRepo)
	return &tc, nil
}
