package main

import (
	"fmt"
	"io"
)

const helpText = `webshot - render a web page in a headless browser and save a screenshot

USAGE
    webshot <url> <output-file> [--option=value ...]

    The output format follows the file extension: .png (default), .jpg,
    .jpeg, .webp, .gif, .tif, .tiff.

OPTIONS

  Viewport:
    --vwidth=N          Viewport width in pixels (default 992)
    --vheight=N         Viewport height in pixels (default 744)
    --viewport=WxH      Shorthand for --vwidth and --vheight
    --fullheight        Without a clip, capture the document height
                        (up to 10x the viewport height)

  Timing:
    --delay=SECONDS     Wait after page load before capture (default 0.2)
    --timeout=N         Page load and capture timeout in seconds (0 = none)

  Clipping:
    --cliprect=T,L,W,H  Capture the rectangle top,left,width,height.
                        Takes precedence over --selector.
    --selector=LIST     Comma separated CSS selectors; the capture covers
                        the union of their bounding boxes. A selector that
                        matches nothing is an error.
    --expand=N          Grow the clip by N pixels on every side
    --expand=T,R,B,L    Grow the clip per side (top,right,bottom,left)

  Output:
    --resize=SPEC       Resize the screenshot: WxH, Wx, xH, WxH!, WxH#,
                        WxH^, P%xP%, WxH+X+Y, WxH_X_Y
    --quality=N         JPEG/WebP quality, 1-100

  Network:
    --domains=LIST      Comma separated whitelist of domains allowed to load
                        resources (example.com, *.cdn.com, .example.com)
    --headers=JSON      Extra request headers, e.g. '{"X-Token":"secret"}'

  Other:
    --engine=NAME       Browser driver: rod (default) or playwright
    --config=FILE       YAML file with option defaults; command line wins
    --debug             Debug logging, including every network request
    --version           Print version information and exit
    --help              Print this help and exit

EXAMPLES
    webshot https://example.com shot.png
    webshot https://example.com header.png --selector=header,nav --expand=10
    webshot https://example.com box.jpg --cliprect=0,0,400,300 --quality=80
    webshot https://example.com thumb.webp --delay=2 --resize=320x

EXIT CODES
    0   Success
    1   Usage, configuration or capture error

ENVIRONMENT
    ROD_BROWSER         Chrome/Chromium executable used by the rod engine
    ROD_HEADLESS        Set to "false" to show the browser window
`

func printUsage(w io.Writer) {
	fmt.Fprint(w, helpText)
}
