package course

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
const minSearchResults = 5

// Recomputer re-runs the grade aggregation for a user after enrollment
// changes.
type Recomputer interface {
	RecomputeUser(ctx context.Context, userID string) error
}

// Service manages shared courses and a user's enrollment in them.
type Service struct {
	db         *mongo.Database
	usersCol   *mongo.Collection
	coursesCol *mongo.Collection
	evalsCol   *mongo.Collection
	recompute  Recomputer
	log        *zap.SugaredLogger
}

// NewService creates a new course Service instance.
func NewService(db *mongo.Database, recompute Recomputer, log *zap.SugaredLogger) *Service {
	return &Service{
		db:         db,
		usersCol:   db.Collection(shared.ColUsers),
		coursesCol: db.Collection(shared.ColCourses),
		evalsCol:   db.Collection(shared.ColCourseEvals),
		recompute:  recompute,
		log:        log,
	}
}

// AddRequest enrolls the user in an existing course by id, or describes a
// course to create first.
type AddRequest struct {
	Semester   string  `json:"semester"`
	CourseID   string  `json:"courseId,omitempty"`
	SchoolName string  `json:"schoolName,omitempty"`
	CourseCode string  `json:"courseCode,omitempty"`
	CourseName string  `json:"courseName,omitempty"`
	Weight     float64 `json:"weight,omitempty"`
	MaxPoints  float64 `json:"maxPoints,omitempty"`
}

// Add enrolls the user in a course for the given semester, creating the
// semester entry and, when no course id is supplied, the shared course
// itself. Enrollment bumps the course's student count.
func (s *Service) Add(ctx context.Context, userID string, req AddRequest) (*shared.User, error) {
	if req.Semester == "" {
		return nil, status.Error(codes.InvalidArgument, "semester is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var u shared.User
	if err := s.usersCol.FindOne(queryCtx, bson.M{"_id": userID}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, status.Error(codes.NotFound, "user not found")
		}
		return nil, status.Error(codes.Internal, "failed to retrieve user")
	}

	semIdx := u.FindSemester(req.Semester)
	if semIdx == -1 {
		u.AcademicPath = append(u.AcademicPath, shared.Semester{
			Semester: req.Semester,
			Courses:  []shared.EnrolledCourse{},
		})
		semIdx = len(u.AcademicPath) - 1
	}
	sem := &u.AcademicPath[semIdx]

	courseID := req.CourseID
	if courseID != "" {
		if sem.FindCourse(courseID) != -1 {
			return nil, status.Error(codes.InvalidArgument, "course already exists in this semester")
		}

		result, err := s.coursesCol.UpdateOne(queryCtx,
			bson.M{"_id": courseID},
			bson.M{"$inc": bson.M{"numStudents": 1}},
		)
		if err != nil {
			return nil, status.Error(codes.Internal, "failed to update course enrollment")
		}
		if result.MatchedCount == 0 {
			return nil, status.Error(codes.NotFound, "course not found")
		}
	} else {
		if req.SchoolName == "" || req.CourseCode == "" || req.CourseName == "" {
			return nil, status.Error(codes.InvalidArgument, "schoolName, courseCode and courseName are required")
		}

		newCourse := shared.Course{
			ID:          shared.GenerateID("crs"),
			SchoolName:  req.SchoolName,
			CourseCode:  req.CourseCode,
			CourseName:  req.CourseName,
			Weight:      req.Weight,
			MaxPoints:   req.MaxPoints,
			NumStudents: 1,
			AllGrades:   []shared.SemesterGrades{},
		}
		if _, err := s.coursesCol.InsertOne(queryCtx, newCourse); err != nil {
			s.log.Errorw("inserting course failed", "err", err)
			return nil, status.Error(codes.Internal, "failed to create course")
		}
		courseID = newCourse.ID
	}

	sem.Courses = append(sem.Courses, shared.EnrolledCourse{
		CourseID:    courseID,
		Assignments: []shared.Assignment{},
	})

	_, err := s.usersCol.UpdateOne(queryCtx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"academicPath": u.AcademicPath}},
	)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to update user")
	}

	return &u, nil
}

// RemoveRequest identifies the enrollment to drop.
type RemoveRequest struct {
	Semester string `json:"semester"`
	CourseID string `json:"courseId"`
}

// Remove drops the course from the user's semester, releases an attached
// evaluation template, re-runs the aggregator, decrements the course's
// student count, and erases the user's entry from the course ledger.
func (s *Service) Remove(ctx context.Context, userID string, req RemoveRequest) (*shared.User, error) {
	if req.Semester == "" {
		return nil, status.Error(codes.InvalidArgument, "semester is required")
	}
	if req.CourseID == "" {
		return nil, status.Error(codes.InvalidArgument, "course ID is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var u shared.User
	if err := s.usersCol.FindOne(queryCtx, bson.M{"_id": userID}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, status.Error(codes.NotFound, "user not found")
		}
		return nil, status.Error(codes.Internal, "failed to retrieve user")
	}

	semIdx := u.FindSemester(req.Semester)
	if semIdx == -1 {
		return nil, status.Error(codes.NotFound, "semester not found")
	}
	sem := &u.AcademicPath[semIdx]

	courseIdx := sem.FindCourse(req.CourseID)
	if courseIdx == -1 {
		return nil, status.Error(codes.NotFound, "course not found in this semester")
	}

	evalID := sem.Courses[courseIdx].CourseEvalID
	sem.Courses = append(sem.Courses[:courseIdx], sem.Courses[courseIdx+1:]...)

	_, err := s.usersCol.UpdateOne(queryCtx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"academicPath": u.AcademicPath}},
	)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to update user")
	}

	if evalID != "" {
		if err := shared.DecrementUsage(queryCtx, s.evalsCol, evalID); err != nil {
			s.log.Errorw("releasing course evaluation failed", "id", evalID, "err", err)
		}
	}

	if err := s.recompute.RecomputeUser(ctx, userID); err != nil {
		return nil, err
	}

	var course shared.Course
	if err := s.coursesCol.FindOne(queryCtx, bson.M{"_id": req.CourseID}).Decode(&course); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, status.Error(codes.NotFound, "course not found")
		}
		return nil, status.Error(codes.Internal, "failed to retrieve course")
	}

	// The ledger cleanup must not depend on the counter guard below, or a
	// course already at zero would keep the stale grade entry.
	if pruneLedgerEntry(&course, req.Semester, userID) {
		_, err = s.coursesCol.UpdateOne(queryCtx,
			bson.M{"_id": req.CourseID},
			bson.M{"$set": bson.M{"allGrades": course.AllGrades}},
		)
		if err != nil {
			return nil, status.Error(codes.Internal, "failed to update course grades")
		}
	}

	// Guard keeps a racing double-remove from driving the count negative.
	_, err = s.coursesCol.UpdateOne(queryCtx,
		bson.M{"_id": req.CourseID, "numStudents": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"numStudents": -1}},
	)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to update course enrollment")
	}

	return &u, nil
}

// Stats reports average, median, and the grade distribution over every
// finalized grade recorded for the course.
func (s *Service) Stats(ctx context.Context, courseID string) (*Stats, error) {
	if courseID == "" {
		return nil, status.Error(codes.InvalidArgument, "course ID is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var course shared.Course
	if err := s.coursesCol.FindOne(queryCtx, bson.M{"_id": courseID}).Decode(&course); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, status.Error(codes.NotFound, "course not found")
		}
		return nil, status.Error(codes.Internal, "failed to retrieve course")
	}

	result := ComputeStats(CollectGrades(&course), course.MaxPoints)
	return &result, nil
}

// Search runs a text search over course code, name, and school, falling back
// to a case-insensitive substring match when too few results come back. An
// empty query returns every course.
func (s *Service) Search(ctx context.Context, query string) ([]shared.Course, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if query == "" {
		cursor, err := s.coursesCol.Find(queryCtx, bson.M{})
		if err != nil {
			return nil, status.Error(codes.Internal, "failed to search courses")
		}
		var all []shared.Course
		if err := cursor.All(queryCtx, &all); err != nil {
			return nil, status.Error(codes.Internal, "failed to decode courses")
		}
		return all, nil
	}

	findOpts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}})

	cursor, err := s.coursesCol.Find(queryCtx, bson.M{"$text": bson.M{"$search": query}}, findOpts)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to search courses")
	}
	var textResults []shared.Course
	if err := cursor.All(queryCtx, &textResults); err != nil {
		return nil, status.Error(codes.Internal, "failed to decode courses")
	}

	if len(textResults) >= minSearchResults {
		return textResults, nil
	}

	pattern := primitive.Regex{Pattern: query, Options: "i"}
	regexFilter := bson.M{"$or": []bson.M{
		{"courseCode": bson.M{"$regex": pattern}},
		{"courseName": bson.M{"$regex": pattern}},
		{"schoolName": bson.M{"$regex": pattern}},
	}}
	cursor, err = s.coursesCol.Find(queryCtx, regexFilter)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to search courses")
	}
	var regexResults []shared.Course
	if err := cursor.All(queryCtx, &regexResults); err != nil {
		return nil, status.Error(codes.Internal, "failed to decode courses")
	}

	return mergeByID(textResults, regexResults), nil
}

// pruneLedgerEntry deletes the user's finalized grade from the semester
// bucket of the course ledger. It reports whether the ledger changed.
func pruneLedgerEntry(c *shared.Course, semester, userID string) bool {
	idx := c.FindSemesterGrades(semester)
	if idx == -1 || c.AllGrades[idx].Grades == nil {
		return false
	}
	if _, ok := c.AllGrades[idx].Grades[userID]; !ok {
		return false
	}
	delete(c.AllGrades[idx].Grades, userID)
	return true
}

// mergeByID appends fallback results to the text search results, dropping
// duplicates and keeping the text search relevance order first.
func mergeByID(primary, fallback []shared.Course) []shared.Course {
	seen := make(map[string]bool, len(primary))
	merged := make([]shared.Course, 0, len(primary)+len(fallback))

	for _, c := range primary {
		if !seen[c.ID] {
			seen[c.ID] = true
			merged = append(merged, c)
		}
	}
	for _, c := range fallback {
		if !seen[c.ID] {
			seen[c.ID] = true
			merged = append(merged, c)
		}
	}

	return merged
}
