package blogs

import (
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/inkwell/internal/apperror"
	"github.com/keyxmakerx/inkwell/internal/plugins/auth"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100

	// maxPage keeps (page-1)*limit well inside int range. Any page past
	// the data is empty anyway.
	maxPage = 1_000_000
)

// Handler handles HTTP requests for blogs.
type Handler struct {
	service BlogService
}

// NewHandler creates a new blog handler.
func NewHandler(service BlogService) *Handler {
	return &Handler{service: service}
}

// --- Admin ---

// Create handles POST /api/admin/blog/create (multipart).
func (h *Handler) Create(c echo.Context) error {
	params, files, err := readForm(c)
	if err != nil {
		return err
	}

	images, err := readUploads(files, "images")
	if err != nil {
		return err
	}
	video, err := readVideo(files)
	if err != nil {
		return err
	}

	blog, err := h.service.Create(c.Request().Context(), CreateInput{
		Title:          params.Get("title"),
		Content:        params.Get("content"),
		Summary:        params.Get("summary"),
		Tags:           formValues(params, "tags"),
		AffiliateLinks: params.Get("affiliateLinks"),
		Status:         params.Get("status"),
		Images:         images,
		Captions:       formValues(params, "captions"),
		Video:          video,
		VideoCaption:   params.Get("video_caption"),
		AuthorID:       auth.GetUserID(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]string{
		"message": "Create Blog Successfully",
		"blogId":  blog.ID,
	})
}

// Update handles PUT /api/admin/blog/update/:id (multipart).
func (h *Handler) Update(c echo.Context) error {
	params, files, err := readForm(c)
	if err != nil {
		return err
	}

	images, err := readUploads(files, "images")
	if err != nil {
		return err
	}
	video, err := readVideo(files)
	if err != nil {
		return err
	}

	input := UpdateInput{
		Title:          optional(params, "title"),
		Content:        optional(params, "content"),
		Summary:        optional(params, "summary"),
		AffiliateLinks: optional(params, "affiliateLinks"),
		Status:         optional(params, "status"),
		Images:         images,
		Captions:       formValues(params, "captions"),
		Video:          video,
		VideoCaption:   params.Get("video_caption"),
	}
	if has(params, "tags") {
		tags := formValues(params, "tags")
		input.Tags = &tags
	}

	blog, err := h.service.Update(c.Request().Context(), c.Param("id"), auth.GetUserID(c), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Update Blog Successfully",
		"blog":    blog,
	})
}

// List handles GET /api/admin/blog.
func (h *Handler) List(c echo.Context) error {
	blogs, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Get All Blog Successfully",
		"blogs":   blogs,
	})
}

// UpdateStatus handles PUT /api/admin/blog/update-status/:id?status=.
func (h *Handler) UpdateStatus(c echo.Context) error {
	blog, err := h.service.UpdateStatus(c.Request().Context(),
		c.Param("id"), auth.GetUserID(c), c.QueryParam("status"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Blog status updated successfully",
		"blog":    blog,
	})
}

// Delete handles DELETE /api/admin/blog/delete/:id.
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id"), auth.GetUserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Blog deleted successfully"})
}

// --- Public ---

// ListPublic handles GET /api/blog?page&limit.
func (h *Handler) ListPublic(c echo.Context) error {
	opts, err := parsePaging(c)
	if err != nil {
		return err
	}

	page, err := h.service.ListPublic(c.Request().Context(), opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// GetBySlug handles GET /api/blog/:slug.
func (h *Handler) GetBySlug(c echo.Context) error {
	blog, err := h.service.GetBySlug(c.Request().Context(), c.Param("slug"), visitorOf(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Blog retrieved successfully",
		"blog":    blog,
	})
}

// FollowAffiliate handles GET /api/blog/:slug/go/:index.
func (h *Handler) FollowAffiliate(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return apperror.NewNotFound("Affiliate link not found")
	}

	target, err := h.service.FollowAffiliate(c.Request().Context(), c.Param("slug"), index, visitorOf(c))
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, target)
}

// --- Form helpers ---

// readForm parses a multipart or urlencoded body.
func readForm(c echo.Context) (url.Values, map[string][]*multipart.FileHeader, error) {
	params, err := c.FormParams()
	if err != nil {
		return nil, nil, apperror.NewBadRequest("invalid form data")
	}
	var files map[string][]*multipart.FileHeader
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, nil, apperror.NewBadRequest("invalid form data")
		}
		files = form.File
	}
	return params, files, nil
}

// formValues returns the values of a field sent as "name" or "name[]".
func formValues(params url.Values, name string) []string {
	return append(append([]string{}, params[name]...), params[name+"[]"]...)
}

func has(params url.Values, name string) bool {
	_, a := params[name]
	_, b := params[name+"[]"]
	return a || b
}

func optional(params url.Values, name string) *string {
	if !has(params, name) {
		return nil
	}
	v := params.Get(name)
	return &v
}

// readUploads reads every non-empty file sent under name or name[].
func readUploads(files map[string][]*multipart.FileHeader, name string) ([]Upload, error) {
	var uploads []Upload
	for _, fh := range append(append([]*multipart.FileHeader{}, files[name]...), files[name+"[]"]...) {
		if fh.Size == 0 {
			continue
		}
		up, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, up)
	}
	return uploads, nil
}

func readVideo(files map[string][]*multipart.FileHeader) (*Upload, error) {
	videos, err := readUploads(files, "video")
	if err != nil || len(videos) == 0 {
		return nil, err
	}
	return &videos[0], nil
}

func readUpload(fh *multipart.FileHeader) (Upload, error) {
	src, err := fh.Open()
	if err != nil {
		return Upload{}, apperror.NewInternal(err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return Upload{}, apperror.NewBadRequest("could not read upload " + fh.Filename)
	}
	return Upload{
		Filename: fh.Filename,
		MimeType: strings.ToLower(fh.Header.Get(echo.HeaderContentType)),
		Data:     data,
	}, nil
}

// parsePaging reads page and limit, defaulting to 1 and 10.
func parsePaging(c echo.Context) (ListOptions, error) {
	opts := ListOptions{Page: 1, Limit: defaultPageLimit}
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, apperror.NewBadRequest("page must be a positive integer")
		}
		opts.Page = min(n, maxPage)
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, apperror.NewBadRequest("limit must be a positive integer")
		}
		opts.Limit = min(n, maxPageLimit)
	}
	return opts, nil
}

func visitorOf(c echo.Context) Visitor {
	return Visitor{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}
