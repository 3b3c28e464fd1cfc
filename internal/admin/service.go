package admin

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gradetrack/internal/shared"
)

// Service exposes maintenance operations reserved for administrators.
type Service struct {
	db  *mongo.Database
	log *zap.SugaredLogger
}

// NewService creates a new admin Service instance.
func NewService(db *mongo.Database, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// WipeResult reports how many documents each collection lost.
type WipeResult struct {
	UsersDeleted        int64 `json:"usersDeleted"`
	CoursesDeleted      int64 `json:"coursesDeleted"`
	GradeSystemsDeleted int64 `json:"gradeSystemsDeleted"`
	CourseEvalsDeleted  int64 `json:"courseEvalsDeleted"`
}

// ClearDatabase removes all application data. Administrator accounts are
// preserved so the instance stays reachable after the wipe.
func (s *Service) ClearDatabase(ctx context.Context) (*WipeResult, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var result WipeResult

	res, err := s.db.Collection(shared.ColUsers).DeleteMany(queryCtx,
		bson.M{"role": bson.M{"$ne": shared.RoleAdmin}})
	if err != nil {
		s.log.Errorw("wiping users failed", "err", err)
		return nil, status.Error(codes.Internal, "failed to clear database")
	}
	result.UsersDeleted = res.DeletedCount

	for _, c := range []struct {
		name  string
		count *int64
	}{
		{shared.ColCourses, &result.CoursesDeleted},
		{shared.ColGradeSystems, &result.GradeSystemsDeleted},
		{shared.ColCourseEvals, &result.CourseEvalsDeleted},
	} {
		res, err := s.db.Collection(c.name).DeleteMany(queryCtx, bson.M{})
		if err != nil {
			s.log.Errorw("wiping collection failed", "collection", c.name, "err", err)
			return nil, status.Error(codes.Internal, "failed to clear database")
		}
		*c.count = res.DeletedCount
	}

	s.log.Infow("database cleared",
		"users", result.UsersDeleted,
		"courses", result.CoursesDeleted,
		"gradeSystems", result.GradeSystemsDeleted,
		"courseEvals", result.CourseEvalsDeleted,
	)
	return &result, nil
}

// Stats reports the current document count per collection.
func (s *Service) Stats(ctx context.Context) (map[string]int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	counts := make(map[string]int64, 4)
	for _, name := range []string{
		shared.ColUsers, shared.ColCourses, shared.ColGradeSystems, shared.ColCourseEvals,
	} {
		n, err := s.db.Collection(name).CountDocuments(queryCtx, bson.M{})
		if err != nil {
			return nil, status.Error(codes.Internal, "failed to count documents")
		}
		counts[name] = n
	}
	return counts, nil
}

// Ping verifies database connectivity and reports the round trip time.
func (s *Service) Ping(ctx context.Context) (time.Duration, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.db.Client().Ping(queryCtx, nil); err != nil {
		return 0, status.Error(codes.Unavailable, "database unreachable")
	}
	return time.Since(start), nil
}
