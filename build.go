package spacetraveling

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/spacetraveling/detail"
	"github.com/eringen/spacetraveling/listing"
	"github.com/eringen/spacetraveling/views"
)

// maxListingPages stops the fragment walk if the content API keeps handing
// out cursors.
const maxListingPages = 10000

// BuildReport summarizes a static build.
type BuildReport struct {
	Posts     int
	Fragments int
	Failed    int
	Duration  time.Duration
}

// Build writes the whole site to Config.OutputDir: the listing with its
// pre-rendered load-more fragments, every post, the sitemap, the feed, and
// the static assets. A page that fails is logged and skipped; Build then
// returns an error after writing everything else.
func (a *App) Build(ctx context.Context) (BuildReport, error) {
	started := time.Now()
	var report BuildReport
	if err := a.prepare(); err != nil {
		return report, err
	}
	out := a.Config.OutputDir
	log := a.Echo.Logger

	resp, err := listing.FirstPage(ctx, a.Client, a.Config.ListingPageSize)
	if err != nil {
		return report, fmt.Errorf("build: %w", err)
	}
	page, err := listing.NewPage(resp, a.Client)
	if err != nil {
		return report, fmt.Errorf("build: %w", err)
	}
	more := views.More{}
	if page.State() == listing.HasMore {
		more.URL = fragmentPath(2)
	}
	home := a.Views.Home(a.site, a.homeMeta(), a.items(page.Posts()), more)
	if err := RenderFile(ctx, filepath.Join(out, "index.html"), home); err != nil {
		return report, fmt.Errorf("build: %w", err)
	}

	n, err := a.buildFragments(ctx, page)
	report.Fragments = n
	if err != nil {
		log.Errorf("build listing: %v", err)
		report.Failed++
	}

	paths, err := detail.StaticPaths(ctx, a.Client)
	if err != nil {
		return report, fmt.Errorf("build: %w", err)
	}
	built, failed := a.buildPosts(ctx, paths.UIDs)
	report.Posts = built
	report.Failed += failed

	if err := a.buildIndexes(ctx); err != nil {
		return report, fmt.Errorf("build: %w", err)
	}
	if err := a.copyAssets(); err != nil {
		return report, fmt.Errorf("build: %w", err)
	}

	report.Duration = time.Since(started)
	log.Infof("built %d posts and %d listing pages in %s", report.Posts, report.Fragments+1, report.Duration)
	if report.Failed > 0 {
		return report, fmt.Errorf("build: %d pages failed", report.Failed)
	}
	return report, nil
}

// buildFragments follows the cursor chain from page, writing each page as a
// load-more fragment whose button points at the next fragment.
func (a *App) buildFragments(ctx context.Context, page *listing.Page) (int, error) {
	written := 0
	for n := 2; page.State() == listing.HasMore; n++ {
		if n > maxListingPages {
			return written, fmt.Errorf("more than %d listing pages", maxListingPages)
		}
		added, err := page.LoadMore(ctx)
		if err != nil {
			return written, fmt.Errorf("listing page %d: %w", n, err)
		}
		more := views.More{}
		if page.State() == listing.HasMore {
			more.URL = fragmentPath(n + 1)
		}
		path := filepath.Join(a.Config.OutputDir, "posts", "page", strconv.Itoa(n), "index.html")
		if err := RenderFile(ctx, path, a.Views.MorePosts(a.site, a.items(added), more)); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func (a *App) buildPosts(ctx context.Context, uids []string) (built, failed int) {
	var ok, bad atomic.Int64
	var g errgroup.Group
	g.SetLimit(a.Config.BuildConcurrency)
	for _, uid := range uids {
		uid := uid
		g.Go(func() error {
			if err := a.buildPost(ctx, uid); err != nil {
				a.Echo.Logger.Errorf("build post %s: %v", uid, err)
				bad.Add(1)
				return nil
			}
			ok.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(ok.Load()), int(bad.Load())
}

func (a *App) buildPost(ctx context.Context, uid string) error {
	if !validUID(uid) {
		return fmt.Errorf("invalid uid %q", uid)
	}
	d, err := detail.Fetch(ctx, a.Client, uid)
	if err != nil {
		return err
	}
	page := a.postPage(d, false)
	if a.Config.LocalizeBanners && page.BannerURL != "" {
		local, err := a.localizeBanner(ctx, uid, page.BannerURL)
		if err != nil {
			// The remote banner still works.
			a.Echo.Logger.Warnf("localize banner: %v", err)
		} else {
			page.BannerURL = local
		}
	}
	return RenderFile(ctx, filepath.Join(a.Config.OutputDir, "post", uid, "index.html"), a.Views.Post(a.site, page))
}

// buildIndexes writes the sitemap, feed, robots.txt and 404 page.
func (a *App) buildIndexes(ctx context.Context) error {
	out := a.Config.OutputDir
	summaries, err := a.allSummaries(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := a.writeSitemap(&buf, summaries); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(out, "sitemap.xml"), buf.Bytes()); err != nil {
		return err
	}

	buf.Reset()
	if err := a.writeFeed(&buf, summaries); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(out, "feed.xml"), buf.Bytes()); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(out, "robots.txt"), []byte(a.robots())); err != nil {
		return err
	}
	return RenderFile(ctx, filepath.Join(out, "404.html"), a.Views.NotFound(a.site))
}

// copyAssets writes the embedded assets and then the user's static dir
// into public/, so user files win.
func (a *App) copyAssets() error {
	public := filepath.Join(a.Config.OutputDir, "public")
	if err := copyTree(EmbeddedAssets, "embedded", public); err != nil {
		return err
	}
	if _, err := os.Stat(a.staticDir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return copyTree(os.DirFS(a.staticDir), ".", public)
}

func copyTree(fsys fs.FS, root, dst string) error {
	return fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		return writeFile(filepath.Join(dst, rel), data)
	})
}
