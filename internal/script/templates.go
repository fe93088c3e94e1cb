package script

import "text/template"

var currencyTmpl = template.Must(template.New("currency").Parse(`
(function() {
  try {
    var currencyData = {{.Data}};
    var cookieValue = JSON.stringify(currencyData);
    var expires = new Date(Date.now() + {{.MaxAge}} * 1000).toUTCString();
    var cookie = "currency=" + encodeURIComponent(cookieValue) + "; path=/; expires=" + expires;
{{- if .Domain}}
    document.cookie = cookie + "; domain=" + {{.Domain}} + "; SameSite=Lax";
{{- end}}
    document.cookie = cookie + "; SameSite=Lax";

    if (typeof localStorage !== "undefined") {
      localStorage.setItem("currency", cookieValue);
    }

    window.dispatchEvent(new CustomEvent("currencyChanged", {
      detail: { currency: currencyData }
    }));

    ["changeCurrency", "updateCurrency", "setCurrency"].forEach(function(name) {
      if (typeof window[name] === "function") {
        try {
          window[name](currencyData);
        } catch (hookError) {
          console.error("currency hook " + name + " failed:", hookError);
        }
      }
    });

    try {
      var selectors = document.querySelectorAll('select[name*="currency"], select[id*="currency"], .currency-selector');
      Array.prototype.forEach.call(selectors, function(selector) {
        if (selector.value !== undefined) {
          selector.value = currencyData.currency;
          selector.dispatchEvent(new Event("change", { bubbles: true }));
        }
      });
    } catch (selectorError) {
      console.error("currency selectors not updated:", selectorError);
    }

    setTimeout(function() {
      window.dispatchEvent(new Event("scroll"));
      if (window.React && window.React.version) {
        window.dispatchEvent(new Event("resize"));
      }
    }, 100);

    console.log("currency applied:", currencyData.currency);
  } catch (error) {
    console.error("Error setting currency cookie:", error);
  }
})();
`))

var themeTmpl = template.Must(template.New("theme").Parse(`
(function() {
  try {
    var mode = {{.Mode}};
    var resolvedTheme = {{.Resolved}};

    if (typeof localStorage !== "undefined") {
      localStorage.setItem("theme", mode);
      localStorage.setItem("resolvedTheme", resolvedTheme);
    }

    window.dispatchEvent(new CustomEvent("themeChanged", {
      detail: { mode: mode, resolvedTheme: resolvedTheme }
    }));

    if (typeof window.applyTheme === "function") {
      try {
        window.applyTheme(resolvedTheme);
      } catch (hookError) {
        console.error("applyTheme failed:", hookError);
      }
    }

    var root = document.documentElement;
    if (root) {
      root.setAttribute("data-theme", resolvedTheme);
      root.classList.remove("light-theme", "dark-theme");
      root.classList.add(resolvedTheme + "-theme");
    }

    console.log("theme applied:", mode, "resolved to:", resolvedTheme);
  } catch (error) {
    console.error("Error setting theme in localStorage:", error);
  }
})();
`))

var setCookieTmpl = template.Must(template.New("set-cookie").Parse(`
(function() {
  try {
    var expires = new Date(Date.now() + {{.MaxAge}} * 1000).toUTCString();
    var cookie = {{.Name}} + "=" + encodeURIComponent({{.Value}}) + "; path=" + {{.Path}} + "; expires=" + expires + "; SameSite=Lax";
{{- if .Domain}}
    cookie += "; domain=" + {{.Domain}};
{{- end}}
    document.cookie = cookie;
  } catch (error) {
    console.error("Error setting cookie:", error);
  }
})();
`))

var clearCookieTmpl = template.Must(template.New("clear-cookie").Parse(`
(function() {
  try {
    var cookie = {{.Name}} + "=; path=" + {{.Path}} + "; expires=Thu, 01 Jan 1970 00:00:00 GMT";
{{- if .Domain}}
    cookie += "; domain=" + {{.Domain}};
{{- end}}
    document.cookie = cookie;
  } catch (error) {
    console.error("Error clearing cookie:", error);
  }
})();
`))

const readThemeScript = `
(function() {
  try {
    return {
      theme: localStorage.getItem("theme") || "system",
      resolvedTheme: localStorage.getItem("resolvedTheme") || "light"
    };
  } catch (error) {
    return { theme: "system", resolvedTheme: "light" };
  }
})();
`
