package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Tracer for OpenTelemetry instrumentation.
var tracer = otel.Tracer("vectord.vectorstore.qdrant")

// QdrantConfig holds configuration for the Qdrant gRPC client.
type QdrantConfig struct {
	// Host is the Qdrant server hostname or IP address.
	// Default: "localhost"
	Host string

	// Port is the Qdrant gRPC port (NOT the HTTP REST port).
	// Default: 6334
	Port int

	// UseTLS enables TLS encryption for the gRPC connection.
	UseTLS bool

	// MaxRetries is the maximum number of retry attempts for transient failures.
	// Default: 3
	MaxRetries int

	// RetryBackoff is the initial backoff duration for retries.
	// Doubles on each retry.
	// Default: 1 second
	RetryBackoff time.Duration

	// MaxMessageSize is the maximum gRPC message size in bytes.
	// Default: 50MB
	MaxMessageSize int
}

// Validate validates the configuration.
func (c QdrantConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, c.Port)
	}
	return nil
}

// ApplyDefaults sets default values for unset fields.
func (c *QdrantConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = time.Second
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 50 * 1024 * 1024
	}
}

// IsTransientError checks if an error is transient (should retry).
// Returns true for network timeouts and temporary unavailability.
// Returns false for invalid arguments, not found, permission denied.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	st, ok := status.FromError(err)
	if !ok {
		return false
	}

	switch st.Code() {
	case grpccodes.Unavailable, grpccodes.DeadlineExceeded, grpccodes.Aborted, grpccodes.ResourceExhausted:
		return true
	default:
		return false
	}
}

// QdrantStore is a Store implementation backed by Qdrant's native gRPC client.
//
// The adapter isolates the rest of the core from Qdrant's wire format:
// payloads are converted between plain Go maps and protobuf Values, point
// identities are mapped onto Qdrant UUIDs, and gRPC status codes are
// translated to the package sentinel errors.
type QdrantStore struct {
	client *qdrant.Client
	config QdrantConfig

	// specs caches collection name -> spec to support client-side
	// dimension checks without a round trip per call.
	specs sync.Map
}

// NewQdrantStore creates a QdrantStore and verifies connectivity.
func NewQdrantStore(config QdrantConfig) (*QdrantStore, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		UseTLS: config.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(config.MaxMessageSize),
				grpc.MaxCallSendMsgSize(config.MaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	store := &QdrantStore{
		client: client,
		config: config,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: health check: %v", ErrConnectionFailed, err)
	}

	return store, nil
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// retryOperation retries an operation with exponential backoff on
// transient gRPC failures.
func (s *QdrantStore) retryOperation(ctx context.Context, operationName string, operation func() error) error {
	backoff := s.config.RetryBackoff

	for attempt := 0; ; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		if !IsTransientError(err) {
			return err
		}
		if attempt == s.config.MaxRetries {
			return fmt.Errorf("%s failed after %d retries: %w", operationName, s.config.MaxRetries, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s canceled: %w", operationName, ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// CreateCollection creates a new collection.
func (s *QdrantStore) CreateCollection(ctx context.Context, spec CollectionSpec) error {
	ctx, span := tracer.Start(ctx, "QdrantStore.CreateCollection")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", spec.Name),
		attribute.Int("vector_size", spec.VectorSize),
	)

	if err := spec.Validate(); err != nil {
		return err
	}
	if spec.Distance == "" {
		spec.Distance = DistanceCosine
	}

	exists, err := s.CollectionExists(ctx, spec.Name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrCollectionExists, spec.Name)
	}

	err = s.retryOperation(ctx, "create_collection", func() error {
		return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: spec.Name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(spec.VectorSize),
				Distance: qdrantDistance(spec.Distance),
			}),
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("creating collection %s: %w", spec.Name, err)
	}

	s.specs.Store(spec.Name, spec)
	span.SetStatus(codes.Ok, "success")
	return nil
}

// DeleteCollection deletes a collection and all its points.
func (s *QdrantStore) DeleteCollection(ctx context.Context, name string) error {
	ctx, span := tracer.Start(ctx, "QdrantStore.DeleteCollection")
	defer span.End()

	span.SetAttributes(attribute.String("collection", name))

	if err := ValidateCollectionName(name); err != nil {
		return err
	}

	exists, err := s.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}

	err = s.retryOperation(ctx, "delete_collection", func() error {
		return s.client.DeleteCollection(ctx, name)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}

	s.specs.Delete(name)
	span.SetStatus(codes.Ok, "success")
	return nil
}

// CollectionExists checks if a collection exists.
func (s *QdrantStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	if err := ValidateCollectionName(name); err != nil {
		return false, err
	}

	var exists bool
	err := s.retryOperation(ctx, "collection_exists", func() error {
		info, err := s.client.GetCollectionInfo(ctx, name)
		if err != nil {
			if st, ok := status.FromError(err); ok && st.Code() == grpccodes.NotFound {
				exists = false
				return nil
			}
			return err
		}
		exists = info != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("checking collection %s: %w", name, err)
	}
	return exists, nil
}

// ListCollections returns all collection names.
func (s *QdrantStore) ListCollections(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "QdrantStore.ListCollections")
	defer span.End()

	var collections []string
	err := s.retryOperation(ctx, "list_collections", func() error {
		result, err := s.client.ListCollections(ctx)
		if err != nil {
			return err
		}
		collections = result
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	span.SetAttributes(attribute.Int("collection_count", len(collections)))
	span.SetStatus(codes.Ok, "success")
	return collections, nil
}

// GetCollectionInfo returns metadata about a collection.
func (s *QdrantStore) GetCollectionInfo(ctx context.Context, name string) (*CollectionInfo, error) {
	ctx, span := tracer.Start(ctx, "QdrantStore.GetCollectionInfo")
	defer span.End()

	span.SetAttributes(attribute.String("collection", name))

	if err := ValidateCollectionName(name); err != nil {
		return nil, err
	}

	var info *CollectionInfo
	err := s.retryOperation(ctx, "get_collection_info", func() error {
		collInfo, err := s.client.GetCollectionInfo(ctx, name)
		if err != nil {
			if st, ok := status.FromError(err); ok && st.Code() == grpccodes.NotFound {
				return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
			}
			return err
		}

		pointCount := 0
		if collInfo.PointsCount != nil {
			pointCount = int(*collInfo.PointsCount)
		}
		info = &CollectionInfo{
			Name:       name,
			PointCount: pointCount,
			Distance:   DistanceCosine,
		}
		if params := collInfo.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
			info.VectorSize = int(params.Size)
			info.Distance = distanceFromQdrant(params.Distance)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.specs.Store(name, CollectionSpec{Name: name, VectorSize: info.VectorSize, Distance: info.Distance})
	span.SetAttributes(attribute.Int("point_count", info.PointCount))
	span.SetStatus(codes.Ok, "success")
	return info, nil
}

// collectionSpec returns the cached spec for a collection, fetching it
// from the server on a cache miss.
func (s *QdrantStore) collectionSpec(ctx context.Context, name string) (CollectionSpec, error) {
	if cached, ok := s.specs.Load(name); ok {
		return cached.(CollectionSpec), nil
	}
	info, err := s.GetCollectionInfo(ctx, name)
	if err != nil {
		return CollectionSpec{}, err
	}
	return CollectionSpec{Name: name, VectorSize: info.VectorSize, Distance: info.Distance}, nil
}

// UpsertPoint inserts or replaces a point.
func (s *QdrantStore) UpsertPoint(ctx context.Context, collection string, point Point) (string, error) {
	ctx, span := tracer.Start(ctx, "QdrantStore.UpsertPoint")
	defer span.End()

	span.SetAttributes(attribute.String("collection", collection))

	if point.ID == "" {
		return "", fmt.Errorf("%w: point id required", ErrInvalidConfig)
	}

	spec, err := s.collectionSpec(ctx, collection)
	if err != nil {
		return "", err
	}
	if len(point.Vector) != spec.VectorSize {
		return "", fmt.Errorf("%w: collection %s expects %d dimensions, got %d",
			ErrDimensionMismatch, collection, spec.VectorSize, len(point.Vector))
	}

	payload := payloadToQdrant(point.Payload)
	// The original id travels in the payload so reads can recover it when
	// it is not itself a UUID.
	payload["id"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: point.ID}}

	err = s.retryOperation(ctx, "upsert", func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points: []*qdrant.PointStruct{{
				Id:      qdrant.NewIDUUID(pointUUID(point.ID)),
				Vectors: qdrant.NewVectors(point.Vector...),
				Payload: payload,
			}},
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("upserting point into %s: %w", collection, err)
	}

	span.SetStatus(codes.Ok, "success")
	return point.ID, nil
}

// GetPoint retrieves a point by id.
func (s *QdrantStore) GetPoint(ctx context.Context, collection, id string) (*Point, error) {
	ctx, span := tracer.Start(ctx, "QdrantStore.GetPoint")
	defer span.End()

	span.SetAttributes(attribute.String("collection", collection))

	if _, err := s.collectionSpec(ctx, collection); err != nil {
		return nil, err
	}

	var retrieved []*qdrant.RetrievedPoint
	err := s.retryOperation(ctx, "get", func() error {
		points, err := s.client.Get(ctx, &qdrant.GetPoints{
			CollectionName: collection,
			Ids:            []*qdrant.PointId{qdrant.NewIDUUID(pointUUID(id))},
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			return err
		}
		retrieved = points
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("getting point %s from %s: %w", id, collection, err)
	}
	if len(retrieved) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPointNotFound, id)
	}

	point := pointFromRetrieved(retrieved[0])
	span.SetStatus(codes.Ok, "success")
	return &point, nil
}

// UpdatePoint partially updates a point via read-merge-upsert.
func (s *QdrantStore) UpdatePoint(ctx context.Context, collection, id string, vector []float32, payload map[string]any) (*Point, error) {
	current, err := s.GetPoint(ctx, collection, id)
	if err != nil {
		return nil, err
	}

	if vector != nil {
		current.Vector = vector
	}
	if current.Payload == nil {
		current.Payload = make(map[string]any, len(payload))
	}
	for k, v := range payload {
		current.Payload[k] = v
	}

	if _, err := s.UpsertPoint(ctx, collection, *current); err != nil {
		return nil, err
	}
	return current, nil
}

// DeletePoint removes a point by id.
func (s *QdrantStore) DeletePoint(ctx context.Context, collection, id string) error {
	ctx, span := tracer.Start(ctx, "QdrantStore.DeletePoint")
	defer span.End()

	span.SetAttributes(attribute.String("collection", collection))

	if _, err := s.GetPoint(ctx, collection, id); err != nil {
		return err
	}

	err := s.retryOperation(ctx, "delete", func() error {
		_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: collection,
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Points{
					Points: &qdrant.PointsIdsList{
						Ids: []*qdrant.PointId{qdrant.NewIDUUID(pointUUID(id))},
					},
				},
			},
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting point %s from %s: %w", id, collection, err)
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}

// SearchPoints performs similarity search ordered by descending score.
func (s *QdrantStore) SearchPoints(ctx context.Context, collection string, vector []float32, params SearchParams) ([]SearchHit, error) {
	ctx, span := tracer.Start(ctx, "QdrantStore.SearchPoints")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.Int("limit", params.Limit),
	)

	if params.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfig, params.Limit)
	}

	spec, err := s.collectionSpec(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != spec.VectorSize {
		return nil, fmt.Errorf("%w: collection %s expects %d dimensions, got %d",
			ErrDimensionMismatch, collection, spec.VectorSize, len(vector))
	}

	query := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(params.Limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
		Filter:         filterToQdrant(params.Filter),
	}
	if params.ScoreThreshold != nil {
		query.ScoreThreshold = params.ScoreThreshold
	}

	var scored []*qdrant.ScoredPoint
	err = s.retryOperation(ctx, "search", func() error {
		results, err := s.client.Query(ctx, query)
		if err != nil {
			return err
		}
		scored = results
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("searching collection %s: %w", collection, err)
	}

	hits := make([]SearchHit, len(scored))
	for i, sp := range scored {
		hits[i] = SearchHit{
			Point: pointFromScored(sp),
			Score: sp.Score,
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(hits)))
	span.SetStatus(codes.Ok, "success")
	return hits, nil
}

// ScrollPoints pages through a collection. The cursor is the Qdrant point id
// to resume from; one extra point is fetched to detect the next page.
func (s *QdrantStore) ScrollPoints(ctx context.Context, collection, cursor string, limit int) (*ScrollPage, error) {
	ctx, span := tracer.Start(ctx, "QdrantStore.ScrollPoints")
	defer span.End()

	span.SetAttributes(attribute.String("collection", collection))

	if limit <= 0 {
		limit = 100
	}
	if _, err := s.collectionSpec(ctx, collection); err != nil {
		return nil, err
	}

	scroll := &qdrant.ScrollPoints{
		CollectionName: collection,
		Limit:          qdrant.PtrOf(uint32(limit + 1)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	}
	if cursor != "" {
		scroll.Offset = qdrant.NewIDUUID(cursor)
	}

	var retrieved []*qdrant.RetrievedPoint
	err := s.retryOperation(ctx, "scroll", func() error {
		points, err := s.client.Scroll(ctx, scroll)
		if err != nil {
			return err
		}
		retrieved = points
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("scrolling collection %s: %w", collection, err)
	}

	page := &ScrollPage{}
	for i, rp := range retrieved {
		if i == limit {
			page.NextCursor = rp.GetId().GetUuid()
			break
		}
		page.Points = append(page.Points, pointFromRetrieved(rp))
	}

	span.SetAttributes(attribute.Int("points_count", len(page.Points)))
	span.SetStatus(codes.Ok, "success")
	return page, nil
}

// pointUUID maps an arbitrary point id onto a Qdrant-compatible UUID.
// Valid UUIDs pass through; anything else is hashed deterministically so the
// same external id always lands on the same Qdrant point.
func pointUUID(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

func qdrantDistance(d Distance) qdrant.Distance {
	switch d {
	case DistanceEuclidean:
		return qdrant.Distance_Euclid
	case DistanceDotProduct:
		return qdrant.Distance_Dot
	default:
		return qdrant.Distance_Cosine
	}
}

func distanceFromQdrant(d qdrant.Distance) Distance {
	switch d {
	case qdrant.Distance_Euclid:
		return DistanceEuclidean
	case qdrant.Distance_Dot:
		return DistanceDotProduct
	default:
		return DistanceCosine
	}
}

func pointFromScored(sp *qdrant.ScoredPoint) Point {
	return recoverPoint(sp.GetId(), sp.GetVectors(), sp.GetPayload())
}

func pointFromRetrieved(rp *qdrant.RetrievedPoint) Point {
	return recoverPoint(rp.GetId(), rp.GetVectors(), rp.GetPayload())
}

func recoverPoint(id *qdrant.PointId, vectors *qdrant.VectorsOutput, payload map[string]*qdrant.Value) Point {
	point := Point{
		ID:      id.GetUuid(),
		Payload: payloadFromQdrant(payload),
	}
	if data := vectors.GetVector().GetData(); data != nil {
		point.Vector = data
	}
	// Prefer the original external id carried in the payload.
	if external, ok := point.Payload["id"].(string); ok && external != "" {
		point.ID = external
		delete(point.Payload, "id")
	}
	return point
}

// payloadToQdrant converts a plain payload map to Qdrant protobuf values.
func payloadToQdrant(payload map[string]any) map[string]*qdrant.Value {
	converted := make(map[string]*qdrant.Value, len(payload))
	for k, v := range payload {
		if qv := valueToQdrant(v); qv != nil {
			converted[k] = qv
		}
	}
	return converted
}

func valueToQdrant(v any) *qdrant.Value {
	switch val := v.(type) {
	case nil:
		return &qdrant.Value{Kind: &qdrant.Value_NullValue{NullValue: qdrant.NullValue_NULL_VALUE}}
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: val}}
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: val}}
	case int:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(val)}}
	case int32:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(val)}}
	case int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: val}}
	case float32:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: float64(val)}}
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: val}}
	case []string:
		values := make([]*qdrant.Value, len(val))
		for i, s := range val {
			values[i] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
		}
		return &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: values}}}
	case []any:
		values := make([]*qdrant.Value, 0, len(val))
		for _, elem := range val {
			if qv := valueToQdrant(elem); qv != nil {
				values = append(values, qv)
			}
		}
		return &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: values}}}
	case map[string]any:
		return &qdrant.Value{Kind: &qdrant.Value_StructValue{StructValue: &qdrant.Struct{Fields: payloadToQdrant(val)}}}
	default:
		return nil
	}
}

// payloadFromQdrant converts Qdrant protobuf values back to a plain map.
func payloadFromQdrant(payload map[string]*qdrant.Value) map[string]any {
	if payload == nil {
		return nil
	}
	converted := make(map[string]any, len(payload))
	for k, v := range payload {
		converted[k] = valueFromQdrant(v)
	}
	return converted
}

func valueFromQdrant(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_ListValue:
		values := make([]any, 0, len(kind.ListValue.GetValues()))
		for _, elem := range kind.ListValue.GetValues() {
			values = append(values, valueFromQdrant(elem))
		}
		return values
	case *qdrant.Value_StructValue:
		return payloadFromQdrant(kind.StructValue.GetFields())
	default:
		return nil
	}
}

// filterToQdrant converts a Filter into a Qdrant filter expression.
func filterToQdrant(f *Filter) *qdrant.Filter {
	if f.IsZero() {
		return nil
	}

	conditions := make([]*qdrant.Condition, 0, len(f.Match)+len(f.MatchAny))
	for key, value := range f.Match {
		var match *qdrant.Match
		switch v := value.(type) {
		case string:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: v}}
		case bool:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Boolean{Boolean: v}}
		case int:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: int64(v)}}
		case int64:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: v}}
		case float64:
			// JSON numbers arrive as float64; integral values match the
			// integer index.
			if v == float64(int64(v)) {
				match = &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: int64(v)}}
			}
		}
		if match == nil {
			continue
		}
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{Key: key, Match: match},
			},
		})
	}
	for key, values := range f.MatchAny {
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: key,
					Match: &qdrant.Match{
						MatchValue: &qdrant.Match_Keywords{
							Keywords: &qdrant.RepeatedStrings{Strings: values},
						},
					},
				},
			},
		})
	}
	if len(conditions) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: conditions}
}

// Ensure QdrantStore implements Store.
var _ Store = (*QdrantStore)(nil)
