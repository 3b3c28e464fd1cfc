package gradesys

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gradetrack/internal/shared"
)

// Text search results below this count trigger the regex fallback.
const minSearchResults = 3

// Service manages shared grade systems and their attachment to users.
type Service struct {
	db         *mongo.Database
	usersCol   *mongo.Collection
	systemsCol *mongo.Collection
	log        *zap.SugaredLogger
}

// NewService creates a new grade system Service instance.
func NewService(db *mongo.Database, log *zap.SugaredLogger) *Service {
	return &Service{
		db:         db,
		usersCol:   db.Collection(shared.ColUsers),
		systemsCol: db.Collection(shared.ColGradeSystems),
		log:        log,
	}
}

// SetupRequest selects an existing grade system by id, or describes a new one.
type SetupRequest struct {
	GradeSysID string             `json:"gradeSysId,omitempty"`
	Name       string             `json:"name,omitempty"`
	MaxPoints  float64            `json:"maxPoints,omitempty"`
	System     []shared.GradeBand `json:"system,omitempty"`
}

// Setup attaches a grade system to the user, creating it first when the
// request carries band definitions instead of an id. A previously attached
// system has its usage counter released.
func (s *Service) Setup(ctx context.Context, userID string, req SetupRequest) (*shared.GradeSystem, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var u shared.User
	if err := s.usersCol.FindOne(queryCtx, bson.M{"_id": userID}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, status.Error(codes.NotFound, "user not found")
		}
		return nil, status.Error(codes.Internal, "failed to retrieve user")
	}

	var sys shared.GradeSystem

	if req.GradeSysID != "" {
		err := s.systemsCol.FindOne(queryCtx, bson.M{"_id": req.GradeSysID}).Decode(&sys)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, status.Error(codes.NotFound, "grade system not found")
			}
			return nil, status.Error(codes.Internal, "failed to retrieve grade system")
		}

		// Re-attaching the already attached system must not move the counter.
		if inc, _ := shared.CounterOps(u.GradeSysID, sys.ID); inc {
			if err := shared.IncrementUsage(queryCtx, s.systemsCol, sys.ID); err != nil {
				return nil, status.Error(codes.Internal, "failed to update grade system usage")
			}
			sys.UsedBy++
		}
	} else {
		if req.Name == "" || len(req.System) == 0 {
			return nil, status.Error(codes.InvalidArgument, "name and system are required")
		}

		sorted, err := ValidateBands(req.System)
		if err != nil {
			return nil, err
		}

		sys = shared.GradeSystem{
			ID:        shared.GenerateID("gsys"),
			Name:      req.Name,
			MaxPoints: req.MaxPoints,
			UsedBy:    1, // the creating user attaches implicitly
			System:    sorted,
		}
		if _, err := s.systemsCol.InsertOne(queryCtx, sys); err != nil {
			s.log.Errorw("inserting grade system failed", "err", err)
			return nil, status.Error(codes.Internal, "failed to create grade system")
		}
	}

	// Release the previously attached system, if any. Writes are independent
	// single-document updates; the counter guard floors at zero.
	if _, dec := shared.CounterOps(u.GradeSysID, sys.ID); dec {
		if err := shared.DecrementUsage(queryCtx, s.systemsCol, u.GradeSysID); err != nil {
			s.log.Errorw("releasing previous grade system failed", "id", u.GradeSysID, "err", err)
		}
	}

	_, err := s.usersCol.UpdateOne(queryCtx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"gradeSysId": sys.ID}},
	)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to update user")
	}

	return &sys, nil
}

// Search runs a text search over grade system names, falling back to a
// case-insensitive substring match when too few results come back. An empty
// query returns every grade system.
func (s *Service) Search(ctx context.Context, query string) ([]shared.GradeSystem, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if query == "" {
		cursor, err := s.systemsCol.Find(queryCtx, bson.M{})
		if err != nil {
			return nil, status.Error(codes.Internal, "failed to search grade systems")
		}
		var all []shared.GradeSystem
		if err := cursor.All(queryCtx, &all); err != nil {
			return nil, status.Error(codes.Internal, "failed to decode grade systems")
		}
		return all, nil
	}

	findOpts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}})

	cursor, err := s.systemsCol.Find(queryCtx, bson.M{"$text": bson.M{"$search": query}}, findOpts)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to search grade systems")
	}
	var textResults []shared.GradeSystem
	if err := cursor.All(queryCtx, &textResults); err != nil {
		return nil, status.Error(codes.Internal, "failed to decode grade systems")
	}

	if len(textResults) >= minSearchResults {
		return textResults, nil
	}

	regexFilter := bson.M{"name": bson.M{"$regex": primitive.Regex{Pattern: query, Options: "i"}}}
	cursor, err = s.systemsCol.Find(queryCtx, regexFilter)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to search grade systems")
	}
	var regexResults []shared.GradeSystem
	if err := cursor.All(queryCtx, &regexResults); err != nil {
		return nil, status.Error(codes.Internal, "failed to decode grade systems")
	}

	return mergeByID(textResults, regexResults), nil
}

// mergeByID appends fallback results to the text search results, dropping
// duplicates and keeping the text search relevance order first.
func mergeByID(primary, fallback []shared.GradeSystem) []shared.GradeSystem {
	seen := make(map[string]bool, len(primary))
	merged := make([]shared.GradeSystem, 0, len(primary)+len(fallback))

	for _, sys := range primary {
		if !seen[sys.ID] {
			seen[sys.ID] = true
			merged = append(merged, sys)
		}
	}
	for _, sys := range fallback {
		if !seen[sys.ID] {
			seen[sys.ID] = true
			merged = append(merged, sys)
		}
	}

	return merged
}
