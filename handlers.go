package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"charityreports/models"
	"charityreports/pkg/entitystore"
	"charityreports/pkg/ingest"
	"charityreports/pkg/jobs"
)

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.POST("/upload", uploadHandler)
	authGroup.GET("/status/:job_id", jobStatusHandler)
	authGroup.GET("/report/:donor_id", fetchReportHandler)
	authGroup.GET("/reports", listReportsHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		c.Set("username", username)
		c.Next()
	}
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterUser(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString})
}

// Legacy BIFF .xls is not parseable by the workbook reader, so it is
// rejected up front rather than failing late with an opaque error.
var allowedUploadExts = map[string]bool{".csv": true, ".xlsx": true}

// uploadHandler ingests a donation spreadsheet and enqueues one report job
// per distinct donor that received a donation in the batch.
func uploadHandler(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedUploadExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file type: only Excel or CSV files are allowed"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}

	ctx := c.Request.Context()

	// Keep the raw upload around in object storage while processing, as an
	// audit trail for the batch.
	tempPath := "temp/" + filepath.Base(file.Filename)
	if err := artifacts.Save(ctx, tempPath, data); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}
	defer func() {
		if err := artifacts.Delete(ctx, tempPath); err != nil {
			log.Printf("cleanup of %s failed: %v", tempPath, err)
		}
	}()

	imp := &ingest.Importer{Store: entitystore.New(db)}
	donorIDs, err := imp.Import(ctx, data, file.Filename)
	if err != nil {
		var schemaErr *ingest.SchemaError
		var formatErr *ingest.FormatError
		switch {
		case errors.As(err, &schemaErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": schemaErr.Error(), "missing_columns": schemaErr.Missing})
		case errors.As(err, &formatErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": formatErr.Error(), "row": formatErr.Row})
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "error processing file: " + err.Error()})
		}
		return
	}

	jobIDs := make([]string, 0, len(donorIDs))
	for _, donorID := range donorIDs {
		jobID, err := reportQueue.Enqueue(ctx, donorID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue report job for donor " + donorID, "job_ids": jobIDs})
			return
		}
		jobIDs = append(jobIDs, jobID)
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "file uploaded and processed successfully", "job_ids": jobIDs})
}

// jobStatusHandler reports the state machine record for one job id.
func jobStatusHandler(c *gin.Context) {
	j, err := reportQueue.Poll(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status lookup failed"})
		return
	}
	resp := gin.H{"job_id": j.ID, "status": j.Status, "progress": j.Progress}
	if j.Status == jobs.StatusFailure {
		resp["error"] = j.Error
	} else if j.Result != "" {
		resp["result"] = j.Result
	}
	c.JSON(http.StatusOK, resp)
}

// fetchReportHandler streams the donor's current report: the most recent
// successfully generated artifact.
func fetchReportHandler(c *gin.Context) {
	ctx := c.Request.Context()
	donorID := c.Param("donor_id")
	es := entitystore.New(db)

	report, err := es.LatestSuccessfulReport(ctx, donorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no successful report found for this donor"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report lookup failed"})
		return
	}
	ok, err := artifacts.Exists(ctx, report.FilePath)
	if err != nil || !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "report file not found in storage"})
		return
	}
	rc, err := artifacts.Open(ctx, report.FilePath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report file not found in storage"})
		return
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read report file"})
		return
	}

	filename := donorID + "_report.pdf"
	if donor, derr := es.Donor(ctx, donorID); derr == nil {
		filename = fmt.Sprintf("%s_%s_report.pdf", donor.FirstName, donor.LastName)
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// listReportsHandler returns a paginated donor list with each donor's most
// recent report, optionally filtered by a search term.
func listReportsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	es := entitystore.New(db)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	q := db.WithContext(ctx).Model(&models.Donor{})
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		q = q.Where("donor_id ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", like, like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	var donors []models.Donor
	if err := q.Order("donor_id").Offset((page - 1) * pageSize).Limit(pageSize).Find(&donors).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	ids := make([]string, len(donors))
	for i, d := range donors {
		ids[i] = d.DonorID
	}
	reports, err := es.LatestReports(ctx, ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	latest := make(map[string]models.Report, len(reports))
	for _, r := range reports {
		latest[r.DonorID] = r
	}

	results := make([]gin.H, 0, len(donors))
	for _, d := range donors {
		entry := gin.H{
			"donor_id":    d.DonorID,
			"full_name":   d.FullName(),
			"email":       d.Email,
			"report_path": "",
			"status":      "",
		}
		if report, ok := latest[d.DonorID]; ok {
			entry["report_path"] = report.FilePath
			entry["status"] = report.Status
		}
		results = append(results, entry)
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "page": page, "page_size": pageSize, "total": total})
}
