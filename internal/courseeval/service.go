package courseeval

import (
	"context"
	"fmt"
	"sort"
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

// Service manages shared course evaluation templates and their attachment to
// a user's enrolled courses.
type Service struct {
	db       *mongo.Database
	usersCol *mongo.Collection
	evalsCol *mongo.Collection
	log      *zap.SugaredLogger
}

// NewService creates a new course evaluation Service instance.
func NewService(db *mongo.Database, log *zap.SugaredLogger) *Service {
	return &Service{
		db:       db,
		usersCol: db.Collection(shared.ColUsers),
		evalsCol: db.Collection(shared.ColCourseEvals),
		log:      log,
	}
}

// CreateRequest describes a new evaluation template. Name is optional and
// only serves search.
type CreateRequest struct {
	Name        string                  `json:"name,omitempty"`
	CourseID    string                  `json:"courseId"`
	Semester    string                  `json:"semester"`
	Assignments []shared.EvalAssignment `json:"assignments"`
}

// Create stores a new evaluation template for a (course, semester) offering.
// A template whose assignment weights form the same multiset as an existing
// one for that offering is rejected, regardless of assignment order or names.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*shared.CourseEval, error) {
	if req.CourseID == "" || req.Semester == "" || len(req.Assignments) == 0 {
		return nil, status.Error(codes.InvalidArgument, "courseId, semester and assignments are required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	existing, err := s.findForOffering(queryCtx, req.CourseID, req.Semester)
	if err != nil {
		return nil, err
	}
	if findMatchingWeights(existing, req.Assignments) != nil {
		return nil, status.Error(codes.InvalidArgument,
			"cannot create a course evaluation with the same weights as an already existing course evaluation")
	}

	eval := shared.CourseEval{
		ID:          shared.GenerateID("ceval"),
		Name:        req.Name,
		CourseID:    req.CourseID,
		Semester:    req.Semester,
		Assignments: req.Assignments,
	}
	if _, err := s.evalsCol.InsertOne(queryCtx, eval); err != nil {
		s.log.Errorw("inserting course evaluation failed", "err", err)
		return nil, status.Error(codes.Internal, "failed to create course evaluation")
	}

	return &eval, nil
}

// SetRequest selects an existing evaluation template by id, or describes one
// inline for a (course, semester) offering.
type SetRequest struct {
	CourseEvalID string                  `json:"courseEvalId,omitempty"`
	Name         string                  `json:"name,omitempty"`
	CourseID     string                  `json:"courseId,omitempty"`
	Semester     string                  `json:"semester,omitempty"`
	Assignments  []shared.EvalAssignment `json:"assignments,omitempty"`
}

// Set attaches an evaluation template to the matching enrolled course of the
// user and populates its assignment list from the template, replacing any
// previous assignments. The inline form reuses an existing template with the
// same weight multiset for the offering, or creates a new one.
func (s *Service) Set(ctx context.Context, userID string, req SetRequest) (*shared.User, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var u shared.User
	if err := s.usersCol.FindOne(queryCtx, bson.M{"_id": userID}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, status.Error(codes.NotFound, "user not found")
		}
		return nil, status.Error(codes.Internal, "failed to retrieve user")
	}

	eval, err := s.resolveEval(queryCtx, req)
	if err != nil {
		return nil, err
	}

	semIdx := u.FindSemester(eval.Semester)
	if semIdx == -1 {
		return nil, status.Error(codes.NotFound, "semester not found in the user's academic path")
	}
	courseIdx := u.AcademicPath[semIdx].FindCourse(eval.CourseID)
	if courseIdx == -1 {
		return nil, status.Error(codes.NotFound, "course not found in the user's academic path")
	}
	enrolled := &u.AcademicPath[semIdx].Courses[courseIdx]

	// Re-attaching the already attached template moves neither counter.
	inc, dec := shared.CounterOps(enrolled.CourseEvalID, eval.ID)
	if dec {
		if err := shared.DecrementUsage(queryCtx, s.evalsCol, enrolled.CourseEvalID); err != nil {
			s.log.Errorw("releasing previous course evaluation failed", "id", enrolled.CourseEvalID, "err", err)
		}
	}
	if inc {
		if err := shared.IncrementUsage(queryCtx, s.evalsCol, eval.ID); err != nil {
			return nil, status.Error(codes.Internal, "failed to update course evaluation usage")
		}
	}

	assignments := make([]shared.Assignment, 0, len(eval.Assignments))
	for i, a := range eval.Assignments {
		assignments = append(assignments, shared.Assignment{
			ID:     fmt.Sprintf("%s_%d", shared.GenerateID("asg"), i),
			Name:   a.Name,
			Weight: a.Weight,
		})
	}
	enrolled.CourseEvalID = eval.ID
	enrolled.Assignments = assignments

	_, err = s.usersCol.UpdateOne(queryCtx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"academicPath": u.AcademicPath}},
	)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to update user")
	}

	return &u, nil
}

// SearchQuery narrows the evaluation search. All fields are optional.
type SearchQuery struct {
	CourseEvalID string
	CourseID     string
	Semester     string
	Name         string
}

// searchFilter builds the Mongo filter for a query. Name matches as a
// case-insensitive substring.
func searchFilter(q SearchQuery) bson.M {
	filter := bson.M{}
	if q.CourseID != "" {
		filter["courseId"] = q.CourseID
	}
	if q.Semester != "" {
		filter["semester"] = q.Semester
	}
	if q.Name != "" {
		filter["name"] = bson.M{"$regex": primitive.Regex{Pattern: q.Name, Options: "i"}}
	}
	return filter
}

// Search returns matching evaluation templates, most used first. A
// courseEvalId lookup returns exactly that template.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]shared.CourseEval, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if q.CourseEvalID != "" {
		var eval shared.CourseEval
		err := s.evalsCol.FindOne(queryCtx, bson.M{"_id": q.CourseEvalID}).Decode(&eval)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, status.Error(codes.NotFound, "course evaluation not found")
			}
			return nil, status.Error(codes.Internal, "failed to retrieve course evaluation")
		}
		return []shared.CourseEval{eval}, nil
	}

	filter := searchFilter(q)

	findOpts := options.Find().SetSort(bson.D{{Key: "usedBy", Value: -1}})
	cursor, err := s.evalsCol.Find(queryCtx, filter, findOpts)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to search course evaluations")
	}
	var evals []shared.CourseEval
	if err := cursor.All(queryCtx, &evals); err != nil {
		return nil, status.Error(codes.Internal, "failed to decode course evaluations")
	}

	return evals, nil
}

// ============================================================================
// Helpers
// ============================================================================

// resolveEval returns the template named by the request, or finds/creates one
// matching the inline definition.
func (s *Service) resolveEval(ctx context.Context, req SetRequest) (*shared.CourseEval, error) {
	if req.CourseEvalID != "" {
		var eval shared.CourseEval
		err := s.evalsCol.FindOne(ctx, bson.M{"_id": req.CourseEvalID}).Decode(&eval)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, status.Error(codes.NotFound, "course evaluation not found")
			}
			return nil, status.Error(codes.Internal, "failed to retrieve course evaluation")
		}
		return &eval, nil
	}

	if req.CourseID == "" || req.Semester == "" || len(req.Assignments) == 0 {
		return nil, status.Error(codes.InvalidArgument, "courseEvalId, or courseId, semester and assignments, are required")
	}

	existing, err := s.findForOffering(ctx, req.CourseID, req.Semester)
	if err != nil {
		return nil, err
	}
	if match := findMatchingWeights(existing, req.Assignments); match != nil {
		return match, nil
	}

	eval := shared.CourseEval{
		ID:          shared.GenerateID("ceval"),
		Name:        req.Name,
		CourseID:    req.CourseID,
		Semester:    req.Semester,
		Assignments: req.Assignments,
	}
	if _, err := s.evalsCol.InsertOne(ctx, eval); err != nil {
		s.log.Errorw("inserting course evaluation failed", "err", err)
		return nil, status.Error(codes.Internal, "failed to create course evaluation")
	}
	return &eval, nil
}

// findForOffering loads every template registered for a (course, semester)
// offering.
func (s *Service) findForOffering(ctx context.Context, courseID, semester string) ([]shared.CourseEval, error) {
	cursor, err := s.evalsCol.Find(ctx, bson.M{"courseId": courseID, "semester": semester})
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to retrieve course evaluations")
	}
	var evals []shared.CourseEval
	if err := cursor.All(ctx, &evals); err != nil {
		return nil, status.Error(codes.Internal, "failed to decode course evaluations")
	}
	return evals, nil
}

// findMatchingWeights returns the first template whose assignment weights
// form the same multiset as the given assignments, or nil.
func findMatchingWeights(existing []shared.CourseEval, assignments []shared.EvalAssignment) *shared.CourseEval {
	weights := sortedWeights(assignments)
	for i := range existing {
		if equalWeights(sortedWeights(existing[i].Assignments), weights) {
			return &existing[i]
		}
	}
	return nil
}

func sortedWeights(assignments []shared.EvalAssignment) []float64 {
	weights := make([]float64, 0, len(assignments))
	for _, a := range assignments {
		weights = append(weights, a.Weight)
	}
	sort.Float64s(weights)
	return weights
}

func equalWeights(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
