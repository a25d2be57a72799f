package api

import (
	"context"
	"io"
	"log"
	"mime/multipart"
	"strings"

	"github.com/example/glamup-shop-verse/domain/apperr"
	"github.com/example/glamup-shop-verse/domain/user"
	"github.com/example/glamup-shop-verse/modules/auth"
	"github.com/example/glamup-shop-verse/modules/cart"
	"github.com/example/glamup-shop-verse/modules/catalog"
	"github.com/example/glamup-shop-verse/modules/currency"
	"github.com/example/glamup-shop-verse/modules/media"
	"github.com/gofiber/fiber/v2"
)

// MediaStore is the part of the media service the HTTP layer uses.
type MediaStore interface {
	Upload(ctx context.Context, bucket, filename, contentType string, data []byte) (*media.Object, error)
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, *media.Object, error)
	Delete(ctx context.Context, bucket, key string) error
	KeyFromURL(url string) (bucket, key string, ok bool)
}

var _ MediaStore = (*media.MediaService)(nil)

var errMediaUnavailable = apperr.External("media storage is not available", nil)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth    auth.AuthPort
	catalog catalog.CatalogPort
	cart    cart.CartPort
	rates   currency.RatesPort
	media   MediaStore
}

// NewHandlers creates a new Handlers instance. media may be nil, in which
// case upload and download routes report the storage as unavailable.
func NewHandlers(authPort auth.AuthPort, catalogPort catalog.CatalogPort, cartPort cart.CartPort, ratesPort currency.RatesPort, mediaStore MediaStore) *Handlers {
	return &Handlers{
		auth:    authPort,
		catalog: catalogPort,
		cart:    cartPort,
		rates:   ratesPort,
		media:   mediaStore,
	}
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest("Email and password are required")
	}

	u, err := h.auth.Register(c.UserContext(), req.Email, req.Password, req.Profile)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toUserResponse(u))
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest("Email and password are required")
	}

	tokens, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(tokens)
}

// Refresh exchanges a refresh token for a new token pair.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request body")
	}
	if req.RefreshToken == "" {
		return badRequest("Refresh token is required")
	}

	tokens, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(tokens)
}

// Logout revokes the session of a refresh token.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request body")
	}
	if req.RefreshToken == "" {
		return badRequest("Refresh token is required")
	}

	if err := h.auth.Logout(c.UserContext(), req.RefreshToken); err != nil {
		return err
	}
	return c.JSON(MessageResponse{Message: "logged out"})
}

// Profile returns the current user's profile.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return apperr.Unauthorized("Invalid token claims")
	}

	u, err := h.auth.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(toUserResponse(u))
}

// UpdateProfile replaces the current user's profile. The profile image is
// only changed through UploadProfileImage.
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return apperr.Unauthorized("Invalid token claims")
	}

	var profile user.Profile
	if err := c.BodyParser(&profile); err != nil {
		return badRequest("Invalid request body")
	}

	current, err := h.auth.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}
	profile.ProfileImage = current.ProfileImage

	u, err := h.auth.UpdateProfile(c.UserContext(), claims.UserID, profile)
	if err != nil {
		return err
	}
	return c.JSON(toUserResponse(u))
}

// UploadProfileImage stores the "image" form file and makes it the current
// user's profile image. The previous image is deleted.
func (h *Handlers) UploadProfileImage(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return apperr.Unauthorized("Invalid token claims")
	}
	if h.media == nil {
		return errMediaUnavailable
	}

	header, err := c.FormFile("image")
	if err != nil {
		return badRequest("image file is required")
	}

	ctx := c.UserContext()
	current, err := h.auth.GetUser(ctx, claims.UserID)
	if err != nil {
		return err
	}

	obj, err := h.upload(ctx, media.ProfileImages, header)
	if err != nil {
		return err
	}

	profile := user.ProfileOf(*current)
	previous := profile.ProfileImage
	profile.ProfileImage = obj.URL

	u, err := h.auth.UpdateProfile(ctx, claims.UserID, profile)
	if err != nil {
		h.deleteQuietly(ctx, obj.Bucket, obj.Key)
		return err
	}
	h.deleteOwned(ctx, previous)

	return c.JSON(toUserResponse(u))
}

// UploadProductImages stores every "images" form file in the product image
// bucket. Either all files are stored or none.
func (h *Handlers) UploadProductImages(c *fiber.Ctx) error {
	if h.media == nil {
		return errMediaUnavailable
	}

	form, err := c.MultipartForm()
	if err != nil {
		return badRequest("Invalid multipart form")
	}
	files := form.File["images"]
	if len(files) == 0 {
		return badRequest("at least one image is required")
	}

	ctx := c.UserContext()
	uploaded := make([]MediaResponse, 0, len(files))
	for _, header := range files {
		obj, err := h.upload(ctx, media.ProductImages, header)
		if err != nil {
			for _, done := range uploaded {
				h.deleteQuietly(ctx, done.Bucket, done.Key)
			}
			return err
		}
		uploaded = append(uploaded, toMediaResponse(obj))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"images": uploaded,
		"count":  len(uploaded),
	})
}

// ServeMedia streams a stored image.
func (h *Handlers) ServeMedia(c *fiber.Ctx) error {
	if h.media == nil {
		return errMediaUnavailable
	}

	reader, obj, err := h.media.Open(c.UserContext(), c.Params("bucket"), c.Params("key"))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, obj.ContentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	// fasthttp closes the reader once the body is written
	return c.SendStream(reader, int(obj.Size))
}

func (h *Handlers) upload(ctx context.Context, bucket string, header *multipart.FileHeader) (*media.Object, error) {
	file, err := header.Open()
	if err != nil {
		return nil, badRequest("failed to read " + header.Filename)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, badRequest("failed to read " + header.Filename)
	}
	return h.media.Upload(ctx, bucket, header.Filename, header.Header.Get(fiber.HeaderContentType), data)
}

// deleteOwned removes url from storage when it points at a stored object.
// External URLs and placeholders are left alone.
func (h *Handlers) deleteOwned(ctx context.Context, url string) {
	if url == "" || h.media == nil {
		return
	}
	bucket, key, ok := h.media.KeyFromURL(url)
	if !ok {
		return
	}
	h.deleteQuietly(ctx, bucket, key)
}

func (h *Handlers) deleteQuietly(ctx context.Context, bucket, key string) {
	if err := h.media.Delete(ctx, bucket, key); err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		log.Printf("[api] Failed to delete media %s/%s: %v", bucket, key, err)
	}
}

func toMediaResponse(obj *media.Object) MediaResponse {
	return MediaResponse{
		Bucket:      obj.Bucket,
		Key:         obj.Key,
		URL:         obj.URL,
		ContentType: obj.ContentType,
		Size:        obj.Size,
	}
}

// currencyParam returns the normalized ?currency= value, or "".
func currencyParam(c *fiber.Ctx) string {
	return strings.ToUpper(strings.TrimSpace(c.Query("currency")))
}
