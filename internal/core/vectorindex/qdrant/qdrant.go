// Package qdrant stores corpus collections in Qdrant over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/markdave123-py/legalmind/internal/core/vectorindex"
)

const upsertBatch = 100

var _ vectorindex.Backend = (*Backend)(nil)

// pointNamespace seeds deterministic point ids derived from record ids.
var pointNamespace = uuid.MustParse("6f1c1d0e-8a53-4a4e-9f0f-3c2f5d1e7b11")

type Backend struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
}

// New connects to Qdrant's gRPC port. apiKey may be empty for local servers.
func New(host string, port int, apiKey string) (*Backend, error) {
	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if apiKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, callOpts ...grpc.CallOption) error {
			ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
			return invoker(ctx, method, req, reply, cc, callOpts...)
		}))
	}

	conn, err := grpc.NewClient(fmt.Sprintf("%s:%d", host, port), opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}
	log.Printf("Qdrant: client configured for %s:%d", host, port)

	return &Backend{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
	}, nil
}

func (b *Backend) Close() error { return b.conn.Close() }

func (b *Backend) EnsureCollection(ctx context.Context, name string, dim int) error {
	exists, err := b.exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = b.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: name,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(dim),
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	return nil
}

func (b *Backend) Upsert(ctx context.Context, name string, records []vectorindex.Record) error {
	wait := true
	batch := make([]*qdrantclient.PointStruct, 0, upsertBatch)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := b.points.Upsert(ctx, &qdrantclient.UpsertPoints{
			CollectionName: name,
			Wait:           &wait,
			Points:         batch,
		})
		if err != nil {
			return fmt.Errorf("upsert points into %s: %w", name, err)
		}
		batch = batch[:0]
		return nil
	}

	for _, r := range records {
		batch = append(batch, &qdrantclient.PointStruct{
			Id: &qdrantclient.PointId{
				PointIdOptions: &qdrantclient.PointId_Uuid{
					Uuid: uuid.NewSHA1(pointNamespace, []byte(r.CorpusID+"/"+r.ID)).String(),
				},
			},
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: r.Vector},
				},
			},
			Payload: map[string]*qdrantclient.Value{
				"record_id": {Kind: &qdrantclient.Value_StringValue{StringValue: r.ID}},
				"corpus_id": {Kind: &qdrantclient.Value_StringValue{StringValue: r.CorpusID}},
				"ordinal":   {Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(r.Ordinal)}},
				"page":      {Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(r.Page)}},
				"content":   {Kind: &qdrantclient.Value_StringValue{StringValue: r.Content}},
			},
		})
		if len(batch) >= upsertBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func (b *Backend) Search(ctx context.Context, name, corpusID string, vector []float32, k int, withVectors bool) ([]vectorindex.Hit, error) {
	resp, err := b.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: name,
		Vector:         vector,
		Limit:          uint64(k),
		Filter: &qdrantclient.Filter{
			Must: []*qdrantclient.Condition{{
				ConditionOneOf: &qdrantclient.Condition_Field{
					Field: &qdrantclient.FieldCondition{
						Key: "corpus_id",
						Match: &qdrantclient.Match{
							MatchValue: &qdrantclient.Match_Keyword{Keyword: corpusID},
						},
					},
				},
			}},
		},
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
		WithVectors: &qdrantclient.WithVectorsSelector{
			SelectorOptions: &qdrantclient.WithVectorsSelector_Enable{Enable: withVectors},
		},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("search %s: %w", name, err)
	}

	hits := make([]vectorindex.Hit, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		payload := p.GetPayload()
		h := vectorindex.Hit{
			Record: vectorindex.Record{
				ID:       payload["record_id"].GetStringValue(),
				CorpusID: payload["corpus_id"].GetStringValue(),
				Ordinal:  int(payload["ordinal"].GetIntegerValue()),
				Page:     int(payload["page"].GetIntegerValue()),
				Content:  payload["content"].GetStringValue(),
			},
			Score: p.GetScore(),
		}
		if withVectors {
			h.Vector = denseVector(p)
		}
		hits = append(hits, h)
	}
	return hits, nil
}

func (b *Backend) DropCollection(ctx context.Context, name string) error {
	exists, err := b.exists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	_, err = b.collections.Delete(ctx, &qdrantclient.DeleteCollection{CollectionName: name})
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	return nil
}

func (b *Backend) exists(ctx context.Context, name string) (bool, error) {
	resp, err := b.collections.CollectionExists(ctx, &qdrantclient.CollectionExistsRequest{CollectionName: name})
	if err != nil {
		return false, fmt.Errorf("check collection %s: %w", name, err)
	}
	return resp.GetResult().GetExists(), nil
}

func denseVector(p *qdrantclient.ScoredPoint) []float32 {
	v := p.GetVectors().GetVector()
	if d := v.GetDense(); d != nil {
		return d.GetData()
	}
	return v.GetData()
}
