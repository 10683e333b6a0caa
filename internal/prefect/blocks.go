package prefect

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/shaiso/Pipeflow/internal/domain"
)

// Slug типов блоков в движке.
var blockTypeSlugs = map[domain.BlockType]string{
	domain.BlockTypeAirbyteServer:     "airbyte-server",
	domain.BlockTypeAirbyteConnection: "airbyte-connection",
	domain.BlockTypeShellOperation:    "shell-operation",
	domain.BlockTypeDBTCoreOperation:  "dbt-core-operation",
	domain.BlockTypeDBTCLIProfile:     "dbt-cli-profile",
	domain.BlockTypeSecret:            "secret",
}

// BlockTypeSlug возвращает slug типа блока в движке.
func BlockTypeSlug(t domain.BlockType) (string, error) {
	slug, ok := blockTypeSlugs[t]
	if !ok {
		return "", fmt.Errorf("%w: unknown block type %q", ErrRequest, t)
	}
	return slug, nil
}

type blockDocumentFilter struct {
	BlockDocuments struct {
		Name anyOf[string] `json:"name"`
	} `json:"block_documents"`
	BlockTypes struct {
		Slug anyOf[string] `json:"slug"`
	} `json:"block_types"`
	Limit int `json:"limit"`
}

type blockSchemaFilter struct {
	BlockSchemas struct {
		BlockTypeID anyOf[uuid.UUID] `json:"block_type_id"`
	} `json:"block_schemas"`
	Limit int `json:"limit"`
}

// GetBlockDocument возвращает документ блока по ID.
// Если движок не знает такой документ (404), возвращает nil без ошибки.
func (c *Client) GetBlockDocument(ctx context.Context, id uuid.UUID) (*BlockDocument, error) {
	var doc BlockDocument
	err := c.get(ctx, "block_documents.get", "block_documents/"+id.String(), &doc)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindBlockDocument ищет документ блока по типу и имени. nil, если не найден.
func (c *Client) FindBlockDocument(ctx context.Context, blockType domain.BlockType, name string) (*BlockDocument, error) {
	slug, err := BlockTypeSlug(blockType)
	if err != nil {
		return nil, err
	}

	var body blockDocumentFilter
	body.BlockDocuments.Name = anyOf[string]{Any: []string{name}}
	body.BlockTypes.Slug = anyOf[string]{Any: []string{slug}}
	body.Limit = 1

	var docs []BlockDocument
	if err := c.post(ctx, "block_documents.filter", "block_documents/filter", body, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0], nil
}

// CreateBlockDocument создаёт документ блока с последней схемой его типа.
func (c *Client) CreateBlockDocument(ctx context.Context, blockType domain.BlockType, name string, data map[string]any) (*BlockDocument, error) {
	slug, err := BlockTypeSlug(blockType)
	if err != nil {
		return nil, err
	}

	var bt BlockTypeRef
	if err := c.get(ctx, "block_types.get", "block_types/slug/"+url.PathEscape(slug), &bt); err != nil {
		return nil, err
	}

	var schemaFilter blockSchemaFilter
	schemaFilter.BlockSchemas.BlockTypeID = anyOf[uuid.UUID]{Any: []uuid.UUID{bt.ID}}
	schemaFilter.Limit = 1

	var schemas []BlockSchema
	if err := c.post(ctx, "block_schemas.filter", "block_schemas/filter", schemaFilter, &schemas); err != nil {
		return nil, err
	}
	if len(schemas) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBlockSchema, slug)
	}

	payload := BlockDocumentCreate{
		Name:          name,
		BlockTypeID:   bt.ID,
		BlockSchemaID: schemas[0].ID,
		Data:          data,
	}

	var doc BlockDocument
	if err := c.post(ctx, "block_documents.create", "block_documents/", payload, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteBlockDocument удаляет документ блока.
func (c *Client) DeleteBlockDocument(ctx context.Context, id uuid.UUID) error {
	return c.delete(ctx, "block_documents.delete", "block_documents/"+id.String())
}
